package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
	"github.com/riskibarqy/typer-league/internal/infrastructure/repository/memory"
)

type stubFeed struct {
	results        map[int]string
	submissions    map[string][]FeedPrediction
	resultsErr     error
	submissionsErr error
}

func (f *stubFeed) FetchResults(context.Context) (map[int]string, error) {
	return f.results, f.resultsErr
}

func (f *stubFeed) FetchSubmissions(context.Context) (map[string][]FeedPrediction, error) {
	return f.submissions, f.submissionsErr
}

type recordingSyncObserver struct {
	mu      sync.Mutex
	results []FeedSyncResult
	errs    []error
}

func (o *recordingSyncObserver) ObserveFeedSync(result FeedSyncResult, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
	o.errs = append(o.errs, err)
}

func newTestFeedSync(feed PredictionFeed, matchRepo *memory.MatchRepository, submissionRepo *memory.SubmissionRepository) (*FeedSyncService, *LeaderboardService, *recordingSyncObserver) {
	leaderboardSvc, _ := newTestLeaderboardService(matchRepo, submissionRepo, LeaderboardServiceConfig{})
	matchSvc := NewMatchService(matchRepo, nil, nil)
	observer := &recordingSyncObserver{}
	return NewFeedSyncService(feed, matchRepo, submissionRepo, matchSvc, leaderboardSvc, observer, nil), leaderboardSvc, observer
}

func TestFeedSyncService_Sync_ImportsFeed(t *testing.T) {
	t.Parallel()

	matchRepo := memory.NewMatchRepository([]match.Match{{ID: 1, Home: "Germany", Away: "Scotland"}})
	submissionRepo := memory.NewSubmissionRepository()
	require := func(cond bool, format string, args ...any) {
		t.Helper()
		if !cond {
			t.Fatalf(format, args...)
		}
	}

	feed := &stubFeed{
		results: map[int]string{1: "5:1", 2: "1:3"},
		submissions: map[string][]FeedPrediction{
			"ana": {
				{MatchID: 1, Home: "Germany", Away: "Scotland", Bet: "1", Score: "5:1"},
				{MatchID: 2, Home: "Hungary", Away: "Switzerland", Bet: "2", Score: "0:1"},
			},
			"ben": {
				{MatchID: 1, Home: "Germany", Away: "Scotland", Bet: "X", Score: "1:1"},
				{MatchID: 3, Home: "Spain", Away: "Croatia", Bet: "1", Score: "3:0"},
			},
			"  ": {
				{MatchID: 1, Bet: "1", Score: "1:0"},
			},
		},
	}

	svc, leaderboardSvc, observer := newTestFeedSync(feed, matchRepo, submissionRepo)
	result, err := svc.Sync(t.Context())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	require(result.MatchesCreated == 2, "unexpected matches created: %d", result.MatchesCreated)
	require(result.ResultsRecorded == 2, "unexpected results recorded: %d", result.ResultsRecorded)
	require(result.SubmissionsCreated == 2, "unexpected submissions created: %d", result.SubmissionsCreated)
	require(result.SubmissionsSkipped == 1, "unexpected submissions skipped: %d", result.SubmissionsSkipped)
	require(result.SnapshotID != "", "expected snapshot id")
	require(len(observer.results) == 1 && observer.errs[0] == nil, "observer not notified")

	created, ok, _ := matchRepo.GetByID(t.Context(), 2)
	require(ok && created.Home == "Hungary" && created.Score == "1:3", "unexpected match 2: %+v", created)
	spain, _, _ := matchRepo.GetByID(t.Context(), 3)
	require(spain.Home == "Spain" && !spain.Played(), "unexpected match 3: %+v", spain)

	snapshot, err := leaderboardSvc.Latest(t.Context())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	require(snapshot.ID == result.SnapshotID, "sync should return the refreshed snapshot id")
	require(snapshot.Entries[0].Username == "ana" && snapshot.Entries[0].Points == 4, "unexpected leader: %+v", snapshot.Entries[0])

	again, err := svc.Sync(t.Context())
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	require(again.MatchesCreated == 0 && again.ResultsRecorded == 0 && again.SubmissionsCreated == 0, "second sync should be a no-op: %+v", again)
	require(again.SnapshotID == result.SnapshotID, "unchanged inputs should keep the snapshot")
}

func TestFeedSyncService_Sync_SkipsConflictingResults(t *testing.T) {
	t.Parallel()

	matchRepo := memory.NewMatchRepository([]match.Match{{ID: 1, Home: "A", Away: "B", Score: "2:0"}})
	submissionRepo := memory.NewSubmissionRepository()
	if err := submissionRepo.Create(t.Context(), submission.Submission{Username: "ana"}); err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	feed := &stubFeed{
		results:     map[int]string{1: "0:2"},
		submissions: map[string][]FeedPrediction{"ana": {{MatchID: 1, Bet: "1", Score: "2:0"}}},
	}
	svc, _, _ := newTestFeedSync(feed, matchRepo, submissionRepo)

	result, err := svc.Sync(t.Context())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.ResultsSkipped != 1 || result.ResultsRecorded != 0 {
		t.Fatalf("unexpected result counters: %+v", result)
	}
	if result.SubmissionsSkipped != 1 {
		t.Fatalf("existing user should be skipped: %+v", result)
	}
	item, _, _ := matchRepo.GetByID(t.Context(), 1)
	if item.Score != "2:0" {
		t.Fatalf("recorded score must not change, got %q", item.Score)
	}
}

func TestFeedSyncService_Sync_FetchFailure(t *testing.T) {
	t.Parallel()

	feed := &stubFeed{resultsErr: errors.New("feed down")}
	svc, _, observer := newTestFeedSync(feed, memory.NewMatchRepository(nil), memory.NewSubmissionRepository())

	if _, err := svc.Sync(t.Context()); err == nil {
		t.Fatalf("expected fetch error")
	}
	if len(observer.errs) != 1 || observer.errs[0] == nil {
		t.Fatalf("observer should see the failure")
	}
}

func TestFeedSyncService_Sync_NoFeed(t *testing.T) {
	t.Parallel()

	svc := NewFeedSyncService(nil, memory.NewMatchRepository(nil), memory.NewSubmissionRepository(), nil, nil, nil, nil)
	if _, err := svc.Sync(t.Context()); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
