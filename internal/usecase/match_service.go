package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type UpsertFixtureInput struct {
	ID        int
	Home      string
	Away      string
	KickoffAt *time.Time
}

type MatchService struct {
	matchRepo match.Repository
	refresher LeaderboardRefresher
	logger    *logging.Logger
	now       func() time.Time
}

func NewMatchService(matchRepo match.Repository, refresher LeaderboardRefresher, logger *logging.Logger) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MatchService{
		matchRepo: matchRepo,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *MatchService) ListMatches(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListMatches")
	defer span.End()

	items, err := s.matchRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return items, nil
}

// UpsertFixtures adds matches to the catalog. Team names of a match can be
// corrected until its result is recorded.
func (s *MatchService) UpsertFixtures(ctx context.Context, inputs []UpsertFixtureInput) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.UpsertFixtures", attribute.Int("fixtures.count", len(inputs)))
	defer span.End()

	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one fixture is required", ErrInvalidInput)
	}

	existing, err := s.matchRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	catalog := catalogByID(existing)

	now := s.now().UTC()
	seen := make(map[int]struct{}, len(inputs))
	items := make([]match.Match, 0, len(inputs))
	for _, input := range inputs {
		if input.ID < 1 {
			return nil, fmt.Errorf("%w: match id must be greater than zero", ErrInvalidInput)
		}
		if _, dup := seen[input.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate match id=%d", ErrInvalidInput, input.ID)
		}
		seen[input.ID] = struct{}{}

		home := strings.TrimSpace(input.Home)
		away := strings.TrimSpace(input.Away)
		if home == "" || away == "" {
			return nil, fmt.Errorf("%w: home and away teams are required for match id=%d", ErrInvalidInput, input.ID)
		}

		item := match.Match{ID: input.ID, Home: home, Away: away, KickoffAt: input.KickoffAt, UpdatedAt: now}
		if current, ok := catalog[input.ID]; ok {
			if current.Played() && (current.Home != home || current.Away != away) {
				return nil, fmt.Errorf("%w: match id=%d already has a result", ErrConflict, input.ID)
			}
			item.Score = current.Score
			if item.KickoffAt == nil {
				item.KickoffAt = current.KickoffAt
			}
		}
		items = append(items, item)
	}

	if err := s.matchRepo.Upsert(ctx, items); err != nil {
		return nil, fmt.Errorf("upsert matches: %w", err)
	}
	s.refresh(ctx, "upsert fixtures")

	return items, nil
}

// RecordResult fills the official score of a match. Scores are never
// retracted: recording the same score again is a no-op and a different score
// is a conflict.
func (s *MatchService) RecordResult(ctx context.Context, matchID int, score string) (_ match.Match, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RecordResult", attribute.Int("match.id", matchID))
	defer func() { endSpan(span, err) }()

	item, changed, err := s.applyResult(ctx, matchID, score)
	if err != nil {
		return match.Match{}, err
	}
	if changed {
		s.refresh(ctx, "record result")
	}

	return item, nil
}

func (s *MatchService) applyResult(ctx context.Context, matchID int, score string) (match.Match, bool, error) {
	if matchID < 1 {
		return match.Match{}, false, fmt.Errorf("%w: match id must be greater than zero", ErrInvalidInput)
	}
	parsed, ok := match.ParseScore(strings.TrimSpace(score))
	if !ok {
		return match.Match{}, false, fmt.Errorf("%w: score must look like h:a", ErrInvalidInput)
	}

	current, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, false, fmt.Errorf("%w: match id=%d", ErrNotFound, matchID)
	}

	if official, played := current.OfficialScore(); played {
		if official == parsed {
			return current, false, nil
		}
		return match.Match{}, false, fmt.Errorf("%w: match id=%d already finished %s", ErrConflict, matchID, official)
	}

	if err := s.matchRepo.SetScore(ctx, matchID, parsed.String()); err != nil {
		return match.Match{}, false, fmt.Errorf("set match score: %w", err)
	}
	current.Score = parsed.String()
	current.UpdatedAt = s.now().UTC()

	return current, true, nil
}

func (s *MatchService) refresh(ctx context.Context, reason string) {
	if s.refresher == nil {
		return
	}
	if _, err := s.refresher.Refresh(ctx); err != nil {
		s.logger.WarnContext(ctx, "refresh leaderboard failed", "reason", reason, "error", err)
	}
}
