package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
	"github.com/riskibarqy/typer-league/internal/infrastructure/repository/memory"
	matchmock "github.com/riskibarqy/typer-league/internal/mocks/domain/match"
	submissionmock "github.com/riskibarqy/typer-league/internal/mocks/domain/submission"
	"github.com/stretchr/testify/mock"
)

func TestSubmissionService_Submit_NormalizesPredictions(t *testing.T) {
	t.Parallel()

	submissionRepo := memory.NewSubmissionRepository()
	refresher := &countingRefresher{}
	svc := NewSubmissionService(memory.NewMatchRepository(memory.SeedMatches()), submissionRepo, refresher, nil)

	got, err := svc.Submit(t.Context(), SubmitInput{
		Username: "  ana  ",
		Predictions: []SubmitPredictionInput{
			{MatchID: 3, Bet: "x", Score: "1:1"},
			{MatchID: 1, Score: "2:0"},
			{MatchID: 2, Bet: "2"},
			{MatchID: 4, Score: "1:2"},
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if got.Username != "ana" {
		t.Fatalf("unexpected username: %q", got.Username)
	}
	if len(got.Predictions) != 3 {
		t.Fatalf("unexpected prediction count: %d", len(got.Predictions))
	}
	first := got.Predictions[0]
	if first.MatchID != 1 || first.Bet != "1" || first.Home != "Germany" || first.Away != "Scotland" {
		t.Fatalf("unexpected first prediction: %+v", first)
	}
	if got.Predictions[1].MatchID != 3 || got.Predictions[1].Bet != "X" {
		t.Fatalf("unexpected second prediction: %+v", got.Predictions[1])
	}
	if got.Predictions[2].MatchID != 4 || got.Predictions[2].Bet != "2" {
		t.Fatalf("unexpected third prediction: %+v", got.Predictions[2])
	}
	if refresher.calls != 1 {
		t.Fatalf("expected one refresh, got %d", refresher.calls)
	}

	stored, ok, _ := submissionRepo.GetByUsername(t.Context(), "ana")
	if !ok || len(stored.Predictions) != 3 {
		t.Fatalf("submission not stored: ok=%v %+v", ok, stored)
	}
}

func TestSubmissionService_Submit_SecondSubmissionConflicts(t *testing.T) {
	t.Parallel()

	svc := NewSubmissionService(memory.NewMatchRepository(memory.SeedMatches()), memory.NewSubmissionRepository(), nil, nil)
	input := SubmitInput{Username: "ana", Predictions: []SubmitPredictionInput{{MatchID: 1, Bet: "1", Score: "1:0"}}}

	if _, err := svc.Submit(t.Context(), input); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.Submit(t.Context(), input); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSubmissionService_Submit_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := NewSubmissionService(memory.NewMatchRepository(memory.SeedMatches()), memory.NewSubmissionRepository(), nil, nil)

	cases := []struct {
		name  string
		input SubmitInput
	}{
		{name: "empty username", input: SubmitInput{Username: "  ", Predictions: []SubmitPredictionInput{{MatchID: 1, Bet: "1", Score: "1:0"}}}},
		{name: "long username", input: SubmitInput{Username: strings.Repeat("a", maxUsernameLength+1), Predictions: []SubmitPredictionInput{{MatchID: 1, Bet: "1", Score: "1:0"}}}},
		{name: "unknown match", input: SubmitInput{Username: "ana", Predictions: []SubmitPredictionInput{{MatchID: 99, Bet: "1", Score: "1:0"}}}},
		{name: "duplicate match", input: SubmitInput{Username: "ana", Predictions: []SubmitPredictionInput{{MatchID: 1, Bet: "1", Score: "1:0"}, {MatchID: 1, Bet: "2", Score: "0:1"}}}},
		{name: "nothing usable", input: SubmitInput{Username: "ana", Predictions: []SubmitPredictionInput{{MatchID: 1, Bet: "1"}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Submit(t.Context(), tc.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSubmissionService_Submit_RejectsPlayedMatch(t *testing.T) {
	t.Parallel()

	matchRepo := memory.NewMatchRepository(memory.SeedMatches())
	if err := matchRepo.SetScore(t.Context(), 2, "1:1"); err != nil {
		t.Fatalf("set score: %v", err)
	}
	submissionRepo := memory.NewSubmissionRepository()
	svc := NewSubmissionService(matchRepo, submissionRepo, nil, nil)

	_, err := svc.Submit(t.Context(), SubmitInput{Username: "late", Predictions: []SubmitPredictionInput{
		{MatchID: 1, Bet: "1", Score: "1:0"},
		{MatchID: 2, Bet: "X", Score: "1:1"},
	}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, ok, _ := submissionRepo.GetByUsername(t.Context(), "late"); ok {
		t.Fatalf("rejected submission must not be stored")
	}

	got, err := svc.Submit(t.Context(), SubmitInput{Username: "late", Predictions: []SubmitPredictionInput{
		{MatchID: 1, Bet: "1", Score: "1:0"},
		{MatchID: 2},
	}})
	if err != nil {
		t.Fatalf("empty row for a played match should be dropped: %v", err)
	}
	if len(got.Predictions) != 1 {
		t.Fatalf("unexpected predictions: %+v", got.Predictions)
	}
}

func TestSubmissionService_Submit_CreateRaceUsingMockery(t *testing.T) {
	t.Parallel()

	matchRepo := matchmock.NewRepository(t)
	submissionRepo := submissionmock.NewRepository(t)
	refresher := &countingRefresher{}
	svc := NewSubmissionService(matchRepo, submissionRepo, refresher, nil)

	submissionRepo.
		On("GetByUsername", mock.Anything, "ana").
		Return(submission.Submission{}, false, nil).
		Once()
	matchRepo.
		On("List", mock.Anything).
		Return([]match.Match{{ID: 1, Home: "A", Away: "B"}}, nil).
		Once()
	submissionRepo.
		On("Create", mock.Anything, mock.MatchedBy(func(v submission.Submission) bool {
			return v.Username == "ana" && len(v.Predictions) == 1
		})).
		Return(submission.ErrAlreadySubmitted).
		Once()

	_, err := svc.Submit(t.Context(), SubmitInput{Username: "ana", Predictions: []SubmitPredictionInput{{MatchID: 1, Bet: "1", Score: "1:0"}}})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if refresher.calls != 0 {
		t.Fatalf("refresh should not run after a failed create")
	}
}

func TestSubmissionService_Submit_RefreshFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	refresher := &countingRefresher{err: errors.New("boom")}
	svc := NewSubmissionService(memory.NewMatchRepository(memory.SeedMatches()), memory.NewSubmissionRepository(), refresher, nil)

	if _, err := svc.Submit(t.Context(), SubmitInput{Username: "ana", Predictions: []SubmitPredictionInput{{MatchID: 1, Bet: "1", Score: "1:0"}}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if refresher.calls != 1 {
		t.Fatalf("expected one refresh, got %d", refresher.calls)
	}
}

func TestSubmissionService_GetByUsername(t *testing.T) {
	t.Parallel()

	svc := NewSubmissionService(memory.NewMatchRepository(memory.SeedMatches()), memory.NewSubmissionRepository(), nil, nil)
	if _, err := svc.GetByUsername(t.Context(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetByUsername(t.Context(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
