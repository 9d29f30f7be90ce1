package rtdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/typer-league/internal/platform/resilience"
	"github.com/riskibarqy/typer-league/internal/usecase"
)

func newTestClient(t *testing.T, handler http.Handler, cfg ClientConfig) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	cfg.HTTPClient = server.Client()
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = time.Millisecond
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestClient_FetchResults_ArrayAndObject(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"array":  `[null, "2:1", null, " 0:0 "]`,
		"object": `{"1": "2:1", "3": "0:0", "bogus": "9:9", "0": "1:1"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/results.json" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("auth"); got != "secret" {
					t.Errorf("unexpected auth query: %q", got)
				}
				_, _ = w.Write([]byte(body))
			}), ClientConfig{AuthToken: "secret"})

			got, err := client.FetchResults(context.Background())
			if err != nil {
				t.Fatalf("fetch results: %v", err)
			}
			if len(got) != 2 || got[1] != "2:1" || got[3] != "0:0" {
				t.Fatalf("unexpected results: %+v", got)
			}
		})
	}
}

func TestClient_FetchResults_NullPayload(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}), ClientConfig{})

	got, err := client.FetchResults(context.Background())
	if err != nil {
		t.Fatalf("fetch results: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no results, got %+v", got)
	}
}

func TestClient_FetchSubmissions(t *testing.T) {
	t.Parallel()

	body := `{
		"ana": [null, {"home": "Germany", "away": "Scotland", "bet": "1", "score": "2:0"}],
		"ben": {"2": {"home": "Hungary", "away": "Switzerland", "bet": "X", "score": "1:1"}, "1": {"home": "Germany", "away": "Scotland", "bet": "2", "score": "0:1"}}
	}`
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/submittedData.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(body))
	}), ClientConfig{})

	got, err := client.FetchSubmissions(context.Background())
	if err != nil {
		t.Fatalf("fetch submissions: %v", err)
	}

	ana := got["ana"]
	if len(ana) != 1 || ana[0].MatchID != 1 || ana[0].Home != "Germany" || ana[0].Score != "2:0" {
		t.Fatalf("unexpected ana picks: %+v", ana)
	}
	ben := got["ben"]
	want := []usecase.FeedPrediction{
		{MatchID: 1, Home: "Germany", Away: "Scotland", Bet: "2", Score: "0:1"},
		{MatchID: 2, Home: "Hungary", Away: "Switzerland", Bet: "X", Score: "1:1"},
	}
	if len(ben) != len(want) {
		t.Fatalf("unexpected ben picks: %+v", ben)
	}
	for i := range want {
		if ben[i] != want[i] {
			t.Fatalf("unexpected ben pick %d: got=%+v want=%+v", i, ben[i], want[i])
		}
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"1": "1:0"}`))
	}), ClientConfig{MaxRetries: 2})

	got, err := client.FetchResults(context.Background())
	if err != nil {
		t.Fatalf("fetch results: %v", err)
	}
	if got[1] != "1:0" || calls.Load() != 3 {
		t.Fatalf("unexpected result after retries: %+v calls=%d", got, calls.Load())
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error": "Permission denied"}`, http.StatusUnauthorized)
	}), ClientConfig{MaxRetries: 3})

	if _, err := client.FetchResults(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("client errors must not be retried, calls=%d", calls.Load())
	}
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), ClientConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	for i := 0; i < 2; i++ {
		if _, err := client.FetchResults(context.Background()); err == nil {
			t.Fatalf("expected failure %d", i)
		}
	}

	_, err := client.FetchResults(context.Background())
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("open breaker must not reach the server, calls=%d", calls.Load())
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestClient_SharedFetchSurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			close(entered)
			<-release
		}
		_, _ = w.Write([]byte(`[null, "1:0"]`))
	}), ClientConfig{})

	callerCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.FetchResults(callerCtx)
		firstErr <- err
	}()
	<-entered

	secondErr := make(chan error, 1)
	go func() {
		got, err := client.FetchResults(context.Background())
		if err == nil && got[1] != "1:0" {
			err = errors.New("unexpected shared results")
		}
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	close(release)

	if err := <-secondErr; err != nil {
		t.Fatalf("waiting caller failed after first caller cancelled: %v", err)
	}
	if err := <-firstErr; err != nil {
		t.Fatalf("first caller: %v", err)
	}
}
