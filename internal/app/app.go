package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/typer-league/external/rtdb"
	"github.com/riskibarqy/typer-league/internal/config"
	"github.com/riskibarqy/typer-league/internal/domain/leaderboard"
	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
	"github.com/riskibarqy/typer-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/typer-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/typer-league/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/typer-league/internal/interfaces/httpapi"
	"github.com/riskibarqy/typer-league/internal/observability"
	basecache "github.com/riskibarqy/typer-league/internal/platform/cache"
	idgen "github.com/riskibarqy/typer-league/internal/platform/id"
	"github.com/riskibarqy/typer-league/internal/platform/logging"
	"github.com/riskibarqy/typer-league/internal/platform/resilience"
	"github.com/riskibarqy/typer-league/internal/usecase"
)

// App holds the wired services behind the HTTP server.
type App struct {
	Server      *http.Server
	Leaderboard *usecase.LeaderboardService
	Submissions *usecase.SubmissionService
	Matches     *usecase.MatchService
	// FeedSync is nil when the prediction feed is disabled.
	FeedSync *usecase.FeedSyncService
	Metrics  *observability.Metrics

	feedSyncInterval time.Duration
	logger           *logging.Logger
	closers          []func() error
}

type repositories struct {
	matches     match.Repository
	submissions submission.Repository
	snapshots   leaderboard.SnapshotRepository
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{feedSyncInterval: cfg.FeedSyncInterval, logger: logger}

	repos, err := a.openRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		leaderboardObserver usecase.LeaderboardObserver
		feedObserver        usecase.FeedSyncObserver
		httpObserver        httpapi.HTTPObserver
		metricsHandler      http.Handler
	)
	if cfg.MetricsEnabled {
		a.Metrics = observability.NewMetrics()
		leaderboardObserver = a.Metrics
		feedObserver = a.Metrics
		httpObserver = a.Metrics
		metricsHandler = a.Metrics.Handler()
	}

	a.Leaderboard = usecase.NewLeaderboardService(
		repos.matches,
		repos.submissions,
		repos.snapshots,
		usecase.LeaderboardServiceConfig{
			Rules: leaderboard.Rules{
				RoundSize:           cfg.RoundSize,
				HallOfFameThreshold: cfg.HallOfFameThreshold,
				ExactScorePoints:    cfg.ExactScorePoints,
				OutcomePoints:       cfg.OutcomePoints,
			},
			ParallelThreshold: cfg.LeaderboardParallelThreshold,
			Workers:           cfg.LeaderboardWorkers,
		},
		idgen.NewUUIDGenerator(),
		leaderboardObserver,
		logger.Named("leaderboard"),
	)
	a.Submissions = usecase.NewSubmissionService(repos.matches, repos.submissions, a.Leaderboard, logger)
	a.Matches = usecase.NewMatchService(repos.matches, a.Leaderboard, logger)

	if cfg.FeedEnabled {
		feedLogger := logger.Named("feed")
		feed, err := newFeedClient(cfg, feedLogger, a.Metrics)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.FeedSync = usecase.NewFeedSyncService(feed, repos.matches, repos.submissions, a.Matches, a.Leaderboard, feedObserver, feedLogger)
	}

	handler := httpapi.NewHandler(a.Leaderboard, a.Submissions, a.Matches, a.FeedSync, logger)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		MetricsHandler:     metricsHandler,
		Observer:           httpObserver,
	})

	a.Server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return a, nil
}

func (a *App) openRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	var repos repositories
	if cfg.DBURL == "" {
		seed := []match.Match(nil)
		if cfg.SeedMatches {
			seed = memory.SeedMatches()
		}
		repos = repositories{
			matches:     memory.NewMatchRepository(seed),
			submissions: memory.NewSubmissionRepository(),
			snapshots:   memory.NewSnapshotRepository(),
		}
		a.logger.InfoContext(ctx, "using in-memory repositories", "seeded_matches", len(seed))
	} else {
		db, err := openDB(ctx, cfg.DBURL, cfg.DBDisablePreparedBinary)
		if err != nil {
			return repositories{}, err
		}
		a.closers = append(a.closers, db.Close)
		repos = repositories{
			matches:     postgres.NewMatchRepository(db),
			submissions: postgres.NewSubmissionRepository(db),
			snapshots:   postgres.NewSnapshotRepository(db),
		}
		a.logger.InfoContext(ctx, "using postgres repositories", "db_name", dbNameFromURL(cfg.DBURL))
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.matches = cache.NewMatchRepository(repos.matches, store)
		repos.submissions = cache.NewSubmissionRepository(repos.submissions, store)
	}
	return repos, nil
}

func newFeedClient(cfg config.Config, logger *logging.Logger, metrics *observability.Metrics) (*rtdb.Client, error) {
	clientCfg := rtdb.ClientConfig{
		BaseURL:      cfg.FeedBaseURL,
		AuthToken:    cfg.FeedAuthToken,
		Timeout:      cfg.FeedTimeout,
		MaxRetries:   cfg.FeedMaxRetries,
		RetryBackoff: cfg.FeedRetryBackoff,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FeedCircuitEnabled,
			FailureThreshold: cfg.FeedCircuitFailureCount,
			OpenTimeout:      cfg.FeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMaxReq,
		},
	}
	if metrics != nil {
		clientCfg.BreakerListener = metrics.ObserveCircuitTransition
	}

	client, err := rtdb.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("build prediction feed client: %w", err)
	}
	return client, nil
}

// Warmup computes the first snapshot so reads never wait on a cold start.
func (a *App) Warmup(ctx context.Context) {
	snapshot, err := a.Leaderboard.Refresh(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "initial leaderboard refresh failed", "error", err)
		return
	}
	a.logger.InfoContext(ctx, "leaderboard ready", "snapshot_id", snapshot.ID, "users", len(snapshot.Entries))
}

// RunFeedSync pulls the feed every interval until ctx is done. It returns
// immediately when the feed or the interval is not configured.
func (a *App) RunFeedSync(ctx context.Context) {
	if a.FeedSync == nil || a.feedSyncInterval <= 0 {
		return
	}

	ticker := time.NewTicker(a.feedSyncInterval)
	defer ticker.Stop()

	a.logger.InfoContext(ctx, "feed sync loop started", "interval", a.feedSyncInterval.String())
	for {
		select {
		case <-ctx.Done():
			a.logger.InfoContext(ctx, "feed sync loop stopped")
			return
		case <-ticker.C:
			if _, err := a.FeedSync.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.WarnContext(ctx, "scheduled feed sync failed", "error", err)
			}
		}
	}
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
