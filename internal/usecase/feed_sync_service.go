package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
	"github.com/riskibarqy/typer-league/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

// FeedPrediction is one pick as published by the remote feed.
type FeedPrediction struct {
	MatchID int
	Home    string
	Away    string
	Bet     string
	Score   string
}

// PredictionFeed is the pull side of the remote store that used to push
// results and submissions to clients.
type PredictionFeed interface {
	FetchResults(ctx context.Context) (map[int]string, error)
	FetchSubmissions(ctx context.Context) (map[string][]FeedPrediction, error)
}

type FeedSyncResult struct {
	MatchesCreated     int    `json:"matches_created"`
	ResultsRecorded    int    `json:"results_recorded"`
	ResultsSkipped     int    `json:"results_skipped"`
	SubmissionsCreated int    `json:"submissions_created"`
	SubmissionsSkipped int    `json:"submissions_skipped"`
	SnapshotID         string `json:"snapshot_id"`
	DurationMs         int64  `json:"duration_ms"`
}

// FeedSyncObserver receives sync outcomes.
type FeedSyncObserver interface {
	ObserveFeedSync(result FeedSyncResult, err error)
}

type FeedSyncService struct {
	feed           PredictionFeed
	matchRepo      match.Repository
	submissionRepo submission.Repository
	matches        *MatchService
	leaderboard    LeaderboardRefresher
	observer       FeedSyncObserver
	logger         *logging.Logger
	now            func() time.Time
}

func NewFeedSyncService(
	feed PredictionFeed,
	matchRepo match.Repository,
	submissionRepo submission.Repository,
	matches *MatchService,
	leaderboard LeaderboardRefresher,
	observer FeedSyncObserver,
	logger *logging.Logger,
) *FeedSyncService {
	if logger == nil {
		logger = logging.Default()
	}

	return &FeedSyncService{
		feed:           feed,
		matchRepo:      matchRepo,
		submissionRepo: submissionRepo,
		matches:        matches,
		leaderboard:    leaderboard,
		observer:       observer,
		logger:         logger,
		now:            time.Now,
	}
}

// Sync pulls results and submissions from the feed, stores what is new and
// refreshes the leaderboard once.
func (s *FeedSyncService) Sync(ctx context.Context) (FeedSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeedSyncService.Sync")
	result, err := s.sync(ctx)
	endSpan(span, err)
	if s.observer != nil {
		s.observer.ObserveFeedSync(result, err)
	}
	return result, err
}

func (s *FeedSyncService) sync(ctx context.Context) (FeedSyncResult, error) {
	if s.feed == nil {
		return FeedSyncResult{}, fmt.Errorf("%w: prediction feed is not configured", ErrDependencyUnavailable)
	}
	started := time.Now()

	var (
		results     map[int]string
		submissions map[string][]FeedPrediction
	)
	fetch := pool.New().WithErrors().WithContext(ctx)
	fetch.Go(func(ctx context.Context) error {
		items, err := s.feed.FetchResults(ctx)
		if err != nil {
			return fmt.Errorf("fetch results: %w", err)
		}
		results = items
		return nil
	})
	fetch.Go(func(ctx context.Context) error {
		items, err := s.feed.FetchSubmissions(ctx)
		if err != nil {
			return fmt.Errorf("fetch submissions: %w", err)
		}
		submissions = items
		return nil
	})
	if err := fetch.Wait(); err != nil {
		return FeedSyncResult{}, err
	}

	var out FeedSyncResult
	created, err := s.createMissingMatches(ctx, results, submissions)
	if err != nil {
		return FeedSyncResult{}, err
	}
	out.MatchesCreated = created

	for _, matchID := range sortedKeys(results) {
		score := strings.TrimSpace(results[matchID])
		if score == "" {
			continue
		}
		_, changed, err := s.matches.applyResult(ctx, matchID, score)
		switch {
		case err != nil && (errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound)):
			out.ResultsSkipped++
			s.logger.WarnContext(ctx, "feed result skipped", "match_id", matchID, "score", score, "error", err)
		case err != nil:
			return FeedSyncResult{}, err
		case changed:
			out.ResultsRecorded++
		}
	}

	if err := s.importSubmissions(ctx, submissions, &out); err != nil {
		return FeedSyncResult{}, err
	}

	if s.leaderboard != nil {
		snapshot, err := s.leaderboard.Refresh(ctx)
		if err != nil {
			return FeedSyncResult{}, fmt.Errorf("refresh leaderboard: %w", err)
		}
		out.SnapshotID = snapshot.ID
	}

	out.DurationMs = time.Since(started).Milliseconds()
	s.logger.InfoContext(ctx, "feed sync completed",
		"matches_created", out.MatchesCreated,
		"results_recorded", out.ResultsRecorded,
		"results_skipped", out.ResultsSkipped,
		"submissions_created", out.SubmissionsCreated,
		"submissions_skipped", out.SubmissionsSkipped,
		"duration_ms", out.DurationMs,
	)
	return out, nil
}

// createMissingMatches adds catalog entries for ids the feed mentions but the
// catalog lacks. Team names are taken from the first prediction naming them.
func (s *FeedSyncService) createMissingMatches(ctx context.Context, results map[int]string, submissions map[string][]FeedPrediction) (int, error) {
	existing, err := s.matchRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list matches: %w", err)
	}
	catalog := catalogByID(existing)

	missing := make(map[int]match.Match)
	for _, username := range sortedKeys(submissions) {
		for _, p := range submissions[username] {
			if p.MatchID < 1 {
				continue
			}
			if _, ok := catalog[p.MatchID]; ok {
				continue
			}
			item := missing[p.MatchID]
			item.ID = p.MatchID
			if item.Home == "" {
				item.Home = strings.TrimSpace(p.Home)
			}
			if item.Away == "" {
				item.Away = strings.TrimSpace(p.Away)
			}
			missing[p.MatchID] = item
		}
	}
	for matchID := range results {
		if _, ok := catalog[matchID]; ok || matchID < 1 {
			continue
		}
		if _, ok := missing[matchID]; !ok {
			missing[matchID] = match.Match{ID: matchID}
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	items := make([]match.Match, 0, len(missing))
	for _, matchID := range sortedKeys(missing) {
		item := missing[matchID]
		item.UpdatedAt = now
		items = append(items, item)
	}
	if err := s.matchRepo.Upsert(ctx, items); err != nil {
		return 0, fmt.Errorf("create feed matches: %w", err)
	}
	return len(items), nil
}

func (s *FeedSyncService) importSubmissions(ctx context.Context, submissions map[string][]FeedPrediction, out *FeedSyncResult) error {
	matches, err := s.matchRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	catalog := catalogByID(matches)
	now := s.now().UTC()

	for _, rawUsername := range sortedKeys(submissions) {
		username, err := validateUsername(rawUsername)
		if err != nil {
			out.SubmissionsSkipped++
			s.logger.WarnContext(ctx, "feed submission skipped", "username", rawUsername, "error", err)
			continue
		}

		_, exists, err := s.submissionRepo.GetByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("get submission: %w", err)
		}
		if exists {
			out.SubmissionsSkipped++
			continue
		}

		predictions := feedPredictions(catalog, submissions[rawUsername])
		if len(predictions) == 0 {
			out.SubmissionsSkipped++
			continue
		}

		err = s.submissionRepo.Create(ctx, submission.Submission{
			Username:    username,
			Predictions: predictions,
			SubmittedAt: now,
		})
		switch {
		case errors.Is(err, submission.ErrAlreadySubmitted):
			out.SubmissionsSkipped++
		case err != nil:
			return fmt.Errorf("create submission user=%s: %w", username, err)
		default:
			out.SubmissionsCreated++
		}
	}
	return nil
}

// feedPredictions keeps the feed's own team names and bet tokens. Only rows
// for known matches carrying both a bet and a score are kept.
func feedPredictions(catalog map[int]match.Match, items []FeedPrediction) []submission.Prediction {
	seen := make(map[int]struct{}, len(items))
	out := make([]submission.Prediction, 0, len(items))
	for _, item := range items {
		m, ok := catalog[item.MatchID]
		if !ok {
			continue
		}
		if _, dup := seen[item.MatchID]; dup {
			continue
		}

		score := strings.TrimSpace(item.Score)
		bet := strings.ToUpper(strings.TrimSpace(item.Bet))
		if bet == "" {
			bet = submission.InferBet(score)
		}
		if bet == "" || score == "" {
			continue
		}
		seen[item.MatchID] = struct{}{}

		home := strings.TrimSpace(item.Home)
		if home == "" {
			home = m.Home
		}
		away := strings.TrimSpace(item.Away)
		if away == "" {
			away = m.Away
		}
		out = append(out, submission.Prediction{
			MatchID: item.MatchID,
			Home:    home,
			Away:    away,
			Bet:     bet,
			Score:   score,
		})
	}

	submission.SortPredictions(out)
	return out
}

func sortedKeys[K int | string, V any](items map[K]V) []K {
	keys := make([]K, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
