package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
	"github.com/riskibarqy/typer-league/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const maxUsernameLength = 64

type SubmitPredictionInput struct {
	MatchID int
	Bet     string
	Score   string
}

type SubmitInput struct {
	Username    string
	Predictions []SubmitPredictionInput
}

type SubmissionService struct {
	matchRepo      match.Repository
	submissionRepo submission.Repository
	refresher      LeaderboardRefresher
	logger         *logging.Logger
	now            func() time.Time
}

func NewSubmissionService(
	matchRepo match.Repository,
	submissionRepo submission.Repository,
	refresher LeaderboardRefresher,
	logger *logging.Logger,
) *SubmissionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SubmissionService{
		matchRepo:      matchRepo,
		submissionRepo: submissionRepo,
		refresher:      refresher,
		logger:         logger,
		now:            time.Now,
	}
}

// Submit stores the one and only submission of a user and refreshes the
// leaderboard. A second submission for the same user is a conflict.
func (s *SubmissionService) Submit(ctx context.Context, input SubmitInput) (_ submission.Submission, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.Submit", attribute.Int("predictions.count", len(input.Predictions)))
	defer func() { endSpan(span, err) }()

	username, err := validateUsername(input.Username)
	if err != nil {
		return submission.Submission{}, err
	}

	_, exists, err := s.submissionRepo.GetByUsername(ctx, username)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	if exists {
		return submission.Submission{}, fmt.Errorf("%w: user=%s already submitted", ErrConflict, username)
	}

	matches, err := s.matchRepo.List(ctx)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("list matches: %w", err)
	}

	predictions, err := buildPredictions(catalogByID(matches), input.Predictions)
	if err != nil {
		return submission.Submission{}, err
	}
	if len(predictions) == 0 {
		return submission.Submission{}, fmt.Errorf("%w: at least one prediction with a bet or score is required", ErrInvalidInput)
	}

	item := submission.Submission{
		Username:    username,
		Predictions: predictions,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.create(ctx, item); err != nil {
		return submission.Submission{}, err
	}

	if s.refresher != nil {
		if _, err := s.refresher.Refresh(ctx); err != nil {
			s.logger.WarnContext(ctx, "refresh leaderboard after submission failed", "username", username, "error", err)
		}
	}

	return item, nil
}

func (s *SubmissionService) GetByUsername(ctx context.Context, username string) (submission.Submission, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.GetByUsername")
	defer span.End()

	username = submission.NormalizeUsername(username)
	if username == "" {
		return submission.Submission{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	item, exists, err := s.submissionRepo.GetByUsername(ctx, username)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	if !exists {
		return submission.Submission{}, fmt.Errorf("%w: submission for user=%s", ErrNotFound, username)
	}

	return item, nil
}

func (s *SubmissionService) List(ctx context.Context) ([]submission.Submission, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.List")
	defer span.End()

	items, err := s.submissionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return items, nil
}

func (s *SubmissionService) create(ctx context.Context, item submission.Submission) error {
	if err := s.submissionRepo.Create(ctx, item); err != nil {
		if errors.Is(err, submission.ErrAlreadySubmitted) {
			return fmt.Errorf("%w: user=%s already submitted", ErrConflict, item.Username)
		}
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func validateUsername(raw string) (string, error) {
	username := submission.NormalizeUsername(raw)
	if username == "" {
		return "", fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return "", fmt.Errorf("%w: username must be at most %d characters", ErrInvalidInput, maxUsernameLength)
	}
	return username, nil
}

// buildPredictions normalises typed picks the way the entry form does: the
// bet token is upper-cased or inferred from the score, and rows without both
// a bet and a score are dropped. Picks for matches that already carry an
// official score are rejected. Team names come from the match catalog.
func buildPredictions(catalog map[int]match.Match, inputs []SubmitPredictionInput) ([]submission.Prediction, error) {
	seen := make(map[int]struct{}, len(inputs))
	out := make([]submission.Prediction, 0, len(inputs))
	for _, input := range inputs {
		m, ok := catalog[input.MatchID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown match id=%d", ErrInvalidInput, input.MatchID)
		}
		if _, dup := seen[input.MatchID]; dup {
			return nil, fmt.Errorf("%w: duplicate prediction for match id=%d", ErrInvalidInput, input.MatchID)
		}
		seen[input.MatchID] = struct{}{}

		score := strings.TrimSpace(input.Score)
		bet := strings.ToUpper(strings.TrimSpace(input.Bet))
		if bet == "" {
			bet = submission.InferBet(score)
		}
		if bet == "" || score == "" {
			continue
		}
		if m.Played() {
			return nil, fmt.Errorf("%w: match id=%d already has a result", ErrInvalidInput, m.ID)
		}

		out = append(out, submission.Prediction{
			MatchID: m.ID,
			Home:    m.Home,
			Away:    m.Away,
			Bet:     bet,
			Score:   score,
		})
	}

	submission.SortPredictions(out)
	return out, nil
}

func catalogByID(matches []match.Match) map[int]match.Match {
	out := make(map[int]match.Match, len(matches))
	for _, item := range matches {
		out[item.ID] = item
	}
	return out
}
