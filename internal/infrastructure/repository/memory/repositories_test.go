package memory

import (
	"errors"
	"testing"

	"github.com/riskibarqy/typer-league/internal/domain/leaderboard"
	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
)

func TestMatchRepository_ListSortedAndSetScore(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository([]match.Match{
		{ID: 3, Home: "C", Away: "D"},
		{ID: 1, Home: "A", Away: "B"},
	})

	if err := repo.SetScore(t.Context(), 3, "2:1"); err != nil {
		t.Fatalf("set score: %v", err)
	}

	items, err := repo.List(t.Context())
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(items) != 2 || items[0].ID != 1 || items[1].ID != 3 {
		t.Fatalf("unexpected order: %+v", items)
	}
	if items[1].Score != "2:1" {
		t.Fatalf("unexpected score: %q", items[1].Score)
	}

	_, ok, err := repo.GetByID(t.Context(), 99)
	if err != nil || ok {
		t.Fatalf("expected missing match, ok=%v err=%v", ok, err)
	}
}

func TestSubmissionRepository_CreateOnce(t *testing.T) {
	t.Parallel()

	repo := NewSubmissionRepository()
	item := submission.Submission{
		Username:    "zoe",
		Predictions: []submission.Prediction{{MatchID: 1, Bet: "1", Score: "1:0"}},
	}
	if err := repo.Create(t.Context(), item); err != nil {
		t.Fatalf("create submission: %v", err)
	}
	if err := repo.Create(t.Context(), item); !errors.Is(err, submission.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if err := repo.Create(t.Context(), submission.Submission{Username: "adam"}); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	items, err := repo.List(t.Context())
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(items) != 2 || items[0].Username != "adam" || items[1].Username != "zoe" {
		t.Fatalf("unexpected order: %+v", items)
	}

	got, ok, _ := repo.GetByUsername(t.Context(), "zoe")
	if !ok {
		t.Fatalf("expected zoe to exist")
	}
	got.Predictions[0].Score = "9:9"
	again, _, _ := repo.GetByUsername(t.Context(), "zoe")
	if again.Predictions[0].Score != "1:0" {
		t.Fatalf("stored submission was mutated through a returned copy")
	}
}

func TestSnapshotRepository_KeepsLatest(t *testing.T) {
	t.Parallel()

	repo := NewSnapshotRepository()
	if _, ok, _ := repo.GetLatest(t.Context()); ok {
		t.Fatalf("expected empty repository")
	}

	_ = repo.Save(t.Context(), leaderboard.Snapshot{ID: "first"})
	_ = repo.Save(t.Context(), leaderboard.Snapshot{ID: "second"})

	got, ok, err := repo.GetLatest(t.Context())
	if err != nil || !ok {
		t.Fatalf("get latest: ok=%v err=%v", ok, err)
	}
	if got.ID != "second" {
		t.Fatalf("unexpected snapshot id: %s", got.ID)
	}
}

func TestSeedMatches_TwoRounds(t *testing.T) {
	t.Parallel()

	items := SeedMatches()
	if len(items) != 18 {
		t.Fatalf("unexpected seed size: %d", len(items))
	}
	for i, item := range items {
		if item.ID != i+1 {
			t.Fatalf("unexpected id at %d: %d", i, item.ID)
		}
		if item.Played() {
			t.Fatalf("seed match %d should not be played", item.ID)
		}
	}
}
