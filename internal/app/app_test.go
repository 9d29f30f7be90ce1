package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/typer-league/internal/config"
	"github.com/riskibarqy/typer-league/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:                       config.EnvDev,
		ServiceName:                  "typer-league-api",
		HTTPAddr:                     ":0",
		CacheEnabled:                 true,
		CacheTTL:                     time.Minute,
		ReadTimeout:                  time.Second,
		WriteTimeout:                 time.Second,
		MetricsEnabled:               true,
		SeedMatches:                  true,
		RoundSize:                    9,
		HallOfFameThreshold:          20,
		ExactScorePoints:             3,
		OutcomePoints:                1,
		LeaderboardParallelThreshold: 500,
		LeaderboardWorkers:           2,
		FeedTimeout:                  time.Second,
		FeedRetryBackoff:             time.Millisecond,
		FeedCircuitEnabled:           true,
		FeedCircuitFailureCount:      3,
		FeedCircuitOpenTimeout:       time.Second,
		FeedCircuitHalfOpenMaxReq:    1,
	}
}

func get(t *testing.T, handler http.Handler, path string) (int, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestNew_InMemoryWiring(t *testing.T) {
	a, err := New(t.Context(), testConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	require.Nil(t, a.FeedSync)
	require.NotNil(t, a.Metrics)

	a.Warmup(t.Context())

	status, body := get(t, a.Server.Handler, "/v1/matches")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "Germany")

	status, _ = get(t, a.Server.Handler, "/v1/leaderboard")
	require.Equal(t, http.StatusOK, status)

	status, body = get(t, a.Server.Handler, "/metrics")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "typer_league_leaderboard_recompute_duration_seconds")
	require.Contains(t, body, "typer_league_http_requests_total")
}

func TestNew_WithoutMetricsHasNoMetricsRoute(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	cfg.SeedMatches = false

	a, err := New(t.Context(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	status, _ := get(t, a.Server.Handler, "/metrics")
	require.Equal(t, http.StatusNotFound, status)

	matches, err := a.Matches.ListMatches(t.Context())
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = ""

	_, err := New(t.Context(), cfg, logging.NewNop())
	require.Error(t, err)
}

func TestNew_FeedSyncImportsResultsAndSubmissions(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/results.json":
			_, _ = w.Write([]byte(`[null, "2:1"]`))
		case "/submittedData.json":
			_, _ = w.Write([]byte(`{"ana": {"1": {"home": "Germany", "away": "Scotland", "bet": "1", "score": "2:1"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(feed.Close)

	cfg := testConfig()
	cfg.FeedEnabled = true
	cfg.FeedBaseURL = feed.URL

	a, err := New(t.Context(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NotNil(t, a.FeedSync)

	result, err := a.FeedSync.Sync(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, result.ResultsRecorded)
	require.Equal(t, 1, result.SubmissionsCreated)

	view, err := a.Leaderboard.GetLeaderboard(t.Context())
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	require.Equal(t, "ana", view.Entries[0].Username)
	require.Equal(t, 3, view.Entries[0].Points)

	_, body := get(t, a.Server.Handler, "/metrics")
	require.True(t, strings.Contains(body, `typer_league_feed_sync_total{status="ok"} 1`), body)
}

func TestRunFeedSync_ReturnsWithoutFeed(t *testing.T) {
	a, err := New(t.Context(), testConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	done := make(chan struct{})
	go func() {
		a.RunFeedSync(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunFeedSync should return when the feed is disabled")
	}
}
