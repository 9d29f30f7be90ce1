package rtdb

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/typer-league/internal/platform/logging"
	"github.com/riskibarqy/typer-league/internal/platform/resilience"
	"github.com/riskibarqy/typer-league/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	resultsPath     = "/results.json"
	submissionsPath = "/submittedData.json"
	maxBodyBytes    = 4 << 20
)

var errFeedTransient = crerr.New("prediction feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	AuthToken      string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	// BreakerListener observes circuit breaker transitions.
	BreakerListener resilience.StateListener
}

// Client reads results and submissions from a realtime-database style REST
// endpoint where every node is addressable as <path>.json.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	authToken      string
	maxRetries     int
	retryBackoff   time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         singleflight.Group
}

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("feed base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse feed base url: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreakerFromConfig(breakerCfg)
	if cfg.BreakerListener != nil {
		breaker.OnStateChange(cfg.BreakerListener)
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		authToken:      strings.TrimSpace(cfg.AuthToken),
		maxRetries:     max(cfg.MaxRetries, 0),
		retryBackoff:   retryBackoff,
		logger:         logger,
		breaker:        breaker,
		circuitEnabled: breakerCfg.Enabled,
	}, nil
}

// FetchResults returns official scores keyed by match id.
func (c *Client) FetchResults(ctx context.Context) (map[int]string, error) {
	var payload any
	if err := c.doJSON(ctx, resultsPath, &payload); err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}

	out := make(map[int]string)
	for matchID, value := range indexedEntries(payload) {
		score, ok := value.(string)
		if !ok {
			continue
		}
		if score = strings.TrimSpace(score); score != "" {
			out[matchID] = score
		}
	}
	return out, nil
}

// FetchSubmissions returns every user's picks. The feed keys picks by match id
// either as an object or as a sparse array.
func (c *Client) FetchSubmissions(ctx context.Context) (map[string][]usecase.FeedPrediction, error) {
	var payload map[string]any
	if err := c.doJSON(ctx, submissionsPath, &payload); err != nil {
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}

	out := make(map[string][]usecase.FeedPrediction, len(payload))
	for username, raw := range payload {
		entries := indexedEntries(raw)
		ids := make([]int, 0, len(entries))
		for matchID := range entries {
			ids = append(ids, matchID)
		}
		sort.Ints(ids)

		predictions := make([]usecase.FeedPrediction, 0, len(ids))
		for _, matchID := range ids {
			fields, ok := entries[matchID].(map[string]any)
			if !ok {
				continue
			}
			predictions = append(predictions, usecase.FeedPrediction{
				MatchID: matchID,
				Home:    stringField(fields, "home"),
				Away:    stringField(fields, "away"),
				Bet:     stringField(fields, "bet"),
				Score:   stringField(fields, "score"),
			})
		}
		out[username] = predictions
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "prediction feed circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: prediction feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	if c.authToken != "" {
		fullURL += "?" + url.Values{"auth": []string{c.authToken}}.Encode()
	}

	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(context.WithoutCancel(ctx), fullURL)
		if c.circuitEnabled {
			if isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errFeedTransient, c.redact(err.Error()))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errFeedTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "prediction feed request failed", "url", c.redact(fullURL), "error", lastErr)
	return nil, lastErr
}

func (c *Client) redact(value string) string {
	if c.authToken == "" {
		return value
	}
	return strings.ReplaceAll(value, url.QueryEscape(c.authToken), "REDACTED")
}

// indexedEntries flattens an object keyed by numeric ids or an array indexed
// by id. Index 0 and null slots carry no match.
func indexedEntries(payload any) map[int]any {
	out := make(map[int]any)
	switch v := payload.(type) {
	case []any:
		for i, item := range v {
			if i == 0 || item == nil {
				continue
			}
			out[i] = item
		}
	case map[string]any:
		for key, item := range v {
			id, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || id < 1 || item == nil {
				continue
			}
			out[id] = item
		}
	}
	return out
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func isCircuitFailure(err error) bool {
	return err != nil && stderrors.Is(err, errFeedTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
