package usecase

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/typer-league/internal/domain/leaderboard"
	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
	idgen "github.com/riskibarqy/typer-league/internal/platform/id"
	"github.com/riskibarqy/typer-league/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

const refreshFlightKey = "leaderboard:refresh"

// LeaderboardObserver receives recompute measurements.
type LeaderboardObserver interface {
	ObserveRecompute(duration time.Duration, users int, changed bool)
}

// LeaderboardRefresher triggers a recompute after the inputs changed.
type LeaderboardRefresher interface {
	Refresh(ctx context.Context) (leaderboard.Snapshot, error)
}

type LeaderboardServiceConfig struct {
	Rules leaderboard.Rules
	// ParallelThreshold is the user count from which aggregation is sharded
	// across the worker pool. Zero disables sharding.
	ParallelThreshold int
	Workers           int
}

// UserStats is the per-user view of the latest snapshot.
type UserStats struct {
	Entry      leaderboard.Entry
	Aggregate  leaderboard.UserAggregate
	Series     leaderboard.UserSeries
	RoundCount int
	ComputedAt time.Time
}

type LeaderboardService struct {
	matchRepo      match.Repository
	submissionRepo submission.Repository
	snapshotRepo   leaderboard.SnapshotRepository
	cfg            LeaderboardServiceConfig
	idGen          idgen.Generator
	logger         *logging.Logger
	observer       LeaderboardObserver
	now            func() time.Time

	flight singleflight.Group
	// requested counts Refresh calls. A shared run repeats until no call
	// arrived while it was reading the repositories.
	requested atomic.Uint64
	mu        sync.RWMutex
	current   *leaderboard.Snapshot
}

func NewLeaderboardService(
	matchRepo match.Repository,
	submissionRepo submission.Repository,
	snapshotRepo leaderboard.SnapshotRepository,
	cfg LeaderboardServiceConfig,
	idGen idgen.Generator,
	observer LeaderboardObserver,
	logger *logging.Logger,
) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Rules == (leaderboard.Rules{}) {
		cfg.Rules = leaderboard.DefaultRules()
	}

	return &LeaderboardService{
		matchRepo:      matchRepo,
		submissionRepo: submissionRepo,
		snapshotRepo:   snapshotRepo,
		cfg:            cfg,
		idGen:          idGen,
		logger:         logger,
		observer:       observer,
		now:            time.Now,
	}
}

func (s *LeaderboardService) Rules() leaderboard.Rules {
	return s.cfg.Rules
}

// Refresh recomputes the leaderboard when matches or submissions changed
// since the retained snapshot. Unchanged inputs return the retained snapshot
// so trends only move on real changes. Concurrent calls share one run, and
// the returned snapshot always reflects writes made before the call.
func (s *LeaderboardService) Refresh(ctx context.Context) (leaderboard.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Refresh")
	defer span.End()

	s.requested.Add(1)
	out, err, shared := s.flight.Do(refreshFlightKey, func() (any, error) {
		return s.refreshUntilCurrent(context.WithoutCancel(ctx))
	})
	if err != nil {
		return leaderboard.Snapshot{}, err
	}
	span.SetAttributes(attribute.Bool("leaderboard.refresh_shared", shared))

	snapshot, ok := out.(leaderboard.Snapshot)
	if !ok {
		return leaderboard.Snapshot{}, fmt.Errorf("unexpected refresh result type %T", out)
	}
	return snapshot, nil
}

func (s *LeaderboardService) refreshUntilCurrent(ctx context.Context) (leaderboard.Snapshot, error) {
	for {
		seen := s.requested.Load()
		snapshot, err := s.refresh(ctx)
		if err != nil {
			return leaderboard.Snapshot{}, err
		}
		if s.requested.Load() == seen {
			return snapshot, nil
		}
	}
}

func (s *LeaderboardService) refresh(ctx context.Context) (leaderboard.Snapshot, error) {
	started := time.Now()

	matches, err := s.matchRepo.List(ctx)
	if err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("list matches: %w", err)
	}
	submissions, err := s.submissionRepo.List(ctx)
	if err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("list submissions: %w", err)
	}

	previous, err := s.latest(ctx)
	if err != nil {
		return leaderboard.Snapshot{}, err
	}

	fingerprint := fingerprintInputs(matches, submissions, s.cfg.Rules)
	if previous != nil && previous.Fingerprint == fingerprint {
		s.observe(time.Since(started), len(submissions), false)
		return *previous, nil
	}

	index := leaderboard.NewMatchIndex(matches)
	aggregates, err := s.aggregate(ctx, index, submissions)
	if err != nil {
		return leaderboard.Snapshot{}, err
	}

	snapshot := leaderboard.Assemble(aggregates, index.RoundCount(s.cfg.Rules.RoundSize), previous, s.cfg.Rules)
	snapshot.Fingerprint = fingerprint
	snapshot.ComputedAt = s.now().UTC()
	if s.idGen != nil {
		snapshotID, err := s.idGen.NewID()
		if err != nil {
			return leaderboard.Snapshot{}, fmt.Errorf("generate snapshot id: %w", err)
		}
		snapshot.ID = snapshotID
	}

	if err := s.snapshotRepo.Save(ctx, snapshot); err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("save leaderboard snapshot: %w", err)
	}
	s.setCurrent(snapshot)

	elapsed := time.Since(started)
	s.observe(elapsed, len(submissions), true)
	s.logger.InfoContext(ctx, "leaderboard recomputed",
		"snapshot_id", snapshot.ID,
		"users", len(snapshot.Entries),
		"rounds", snapshot.RoundCount,
		"hall_of_fame", len(snapshot.Records.HallOfFame),
		"duration_ms", elapsed.Milliseconds(),
	)

	return snapshot, nil
}

// Latest returns the retained snapshot, computing the first one on demand.
func (s *LeaderboardService) Latest(ctx context.Context) (leaderboard.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Latest")
	defer span.End()

	current, err := s.latest(ctx)
	if err != nil {
		return leaderboard.Snapshot{}, err
	}
	if current != nil {
		return *current, nil
	}

	return s.Refresh(ctx)
}

// LeaderboardView is the ranked table of the latest snapshot.
type LeaderboardView struct {
	SnapshotID string
	ComputedAt time.Time
	RoundCount int
	Entries    []leaderboard.Entry
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context) (LeaderboardView, error) {
	snapshot, err := s.Latest(ctx)
	if err != nil {
		return LeaderboardView{}, err
	}

	return LeaderboardView{
		SnapshotID: snapshot.ID,
		ComputedAt: snapshot.ComputedAt,
		RoundCount: snapshot.RoundCount,
		Entries:    snapshot.Entries,
	}, nil
}

func (s *LeaderboardService) GetRecords(ctx context.Context) (leaderboard.Records, error) {
	snapshot, err := s.Latest(ctx)
	if err != nil {
		return leaderboard.Records{}, err
	}
	return snapshot.Records, nil
}

// GetSeries returns the per-round points of every user in leaderboard order.
func (s *LeaderboardService) GetSeries(ctx context.Context) ([]leaderboard.UserSeries, int, error) {
	snapshot, err := s.Latest(ctx)
	if err != nil {
		return nil, 0, err
	}
	return snapshot.Series, snapshot.RoundCount, nil
}

func (s *LeaderboardService) GetUserStats(ctx context.Context, username string) (UserStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.GetUserStats", attribute.String("user.name", username))
	defer span.End()

	username = submission.NormalizeUsername(username)
	if username == "" {
		return UserStats{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	snapshot, err := s.Latest(ctx)
	if err != nil {
		return UserStats{}, err
	}

	entry, ok := snapshot.Entry(username)
	if !ok {
		return UserStats{}, fmt.Errorf("%w: user=%s", ErrNotFound, username)
	}
	aggregate, _ := snapshot.Aggregate(username)
	series, _ := snapshot.SeriesFor(username)

	return UserStats{
		Entry:      entry,
		Aggregate:  aggregate,
		Series:     series,
		RoundCount: snapshot.RoundCount,
		ComputedAt: snapshot.ComputedAt,
	}, nil
}

func (s *LeaderboardService) latest(ctx context.Context) (*leaderboard.Snapshot, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current != nil {
		return current, nil
	}

	stored, exists, err := s.snapshotRepo.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest leaderboard snapshot: %w", err)
	}
	if !exists {
		return nil, nil
	}

	s.setCurrent(stored)
	return &stored, nil
}

func (s *LeaderboardService) setCurrent(snapshot leaderboard.Snapshot) {
	s.mu.Lock()
	s.current = &snapshot
	s.mu.Unlock()
}

func (s *LeaderboardService) aggregate(ctx context.Context, index leaderboard.MatchIndex, submissions []submission.Submission) ([]leaderboard.UserAggregate, error) {
	out := make([]leaderboard.UserAggregate, len(submissions))
	if s.cfg.ParallelThreshold <= 0 || len(submissions) < s.cfg.ParallelThreshold || s.cfg.Workers < 2 {
		for i, sub := range submissions {
			out[i] = leaderboard.AggregateUser(sub, index, s.cfg.Rules)
		}
		return out, nil
	}

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create aggregation worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for i := range submissions {
		i := i
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			out[i] = leaderboard.AggregateUser(submissions[i], index, s.cfg.Rules)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return nil, fmt.Errorf("submit aggregation task: %w", err)
		}
	}
	workers.Wait()

	s.logger.DebugContext(ctx, "leaderboard aggregation sharded", "users", len(submissions), "workers", s.cfg.Workers)
	return out, nil
}

func (s *LeaderboardService) observe(duration time.Duration, users int, changed bool) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveRecompute(duration, users, changed)
}

// fingerprintInputs hashes everything a recompute depends on.
func fingerprintInputs(matches []match.Match, submissions []submission.Submission, rules leaderboard.Rules) string {
	h := fnv.New64a()
	writeInt := func(v int) {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		_, _ = h.Write(buf[:])
	}
	writeString := func(v string) {
		writeInt(len(v))
		_, _ = h.Write([]byte(v))
	}

	writeInt(rules.RoundSize)
	writeInt(rules.HallOfFameThreshold)
	writeInt(rules.ExactScorePoints)
	writeInt(rules.OutcomePoints)

	sortedMatches := append([]match.Match(nil), matches...)
	sort.Slice(sortedMatches, func(i, j int) bool { return sortedMatches[i].ID < sortedMatches[j].ID })
	writeInt(len(sortedMatches))
	for _, m := range sortedMatches {
		writeInt(m.ID)
		writeString(m.Home)
		writeString(m.Away)
		writeString(strings.TrimSpace(m.Score))
	}

	writeInt(len(submissions))
	for _, sub := range submissions {
		writeString(sub.Username)
		writeInt(len(sub.Predictions))
		for _, p := range sub.Predictions {
			writeInt(p.MatchID)
			writeString(p.Home)
			writeString(p.Away)
			writeString(p.Bet)
			writeString(p.Score)
		}
	}

	return strconv.FormatUint(h.Sum64(), 16)
}
