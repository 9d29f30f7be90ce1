package cache

import (
	"context"
	"strconv"

	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
	basecache "github.com/riskibarqy/typer-league/internal/platform/cache"
)

const (
	matchListKey      = "match:list"
	matchByIDPrefix   = "match:id:"
	submissionListKey = "submission:list"
	submissionPrefix  = "submission:"
	submissionByUser  = "submission:user:"
)

type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	items, err := basecache.Load(ctx, r.cache, matchListKey, func(ctx context.Context) ([]match.Match, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]match.Match(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	return append([]match.Match(nil), items...), nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID int) (match.Match, bool, error) {
	key := matchByIDPrefix + strconv.Itoa(matchID)
	cached, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) (cachedMatch, error) {
		item, exists, err := r.next.GetByID(ctx, matchID)
		if err != nil {
			return cachedMatch{}, err
		}
		return cachedMatch{value: item, exists: exists}, nil
	})
	if err != nil {
		return match.Match{}, false, err
	}

	return cached.value, cached.exists, nil
}

func (r *MatchRepository) Upsert(ctx context.Context, items []match.Match) error {
	defer r.invalidate(ctx)
	return r.next.Upsert(ctx, items)
}

func (r *MatchRepository) SetScore(ctx context.Context, matchID int, score string) error {
	defer r.invalidate(ctx)
	return r.next.SetScore(ctx, matchID, score)
}

func (r *MatchRepository) invalidate(ctx context.Context) {
	r.cache.Delete(ctx, matchListKey)
	r.cache.DeletePrefix(ctx, matchByIDPrefix)
}

type cachedMatch struct {
	value  match.Match
	exists bool
}

type SubmissionRepository struct {
	next  submission.Repository
	cache *basecache.Store
}

func NewSubmissionRepository(next submission.Repository, cache *basecache.Store) *SubmissionRepository {
	return &SubmissionRepository{next: next, cache: cache}
}

func (r *SubmissionRepository) List(ctx context.Context) ([]submission.Submission, error) {
	items, err := basecache.Load(ctx, r.cache, submissionListKey, func(ctx context.Context) ([]submission.Submission, error) {
		return r.next.List(ctx)
	})
	if err != nil {
		return nil, err
	}

	out := make([]submission.Submission, 0, len(items))
	for _, item := range items {
		item.Predictions = append([]submission.Prediction(nil), item.Predictions...)
		out = append(out, item)
	}
	return out, nil
}

func (r *SubmissionRepository) GetByUsername(ctx context.Context, username string) (submission.Submission, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, submissionByUser+username, func(ctx context.Context) (cachedSubmission, error) {
		item, exists, err := r.next.GetByUsername(ctx, username)
		if err != nil {
			return cachedSubmission{}, err
		}
		return cachedSubmission{value: item, exists: exists}, nil
	})
	if err != nil {
		return submission.Submission{}, false, err
	}

	item := cached.value
	item.Predictions = append([]submission.Prediction(nil), item.Predictions...)
	return item, cached.exists, nil
}

func (r *SubmissionRepository) Create(ctx context.Context, item submission.Submission) error {
	defer r.cache.DeletePrefix(ctx, submissionPrefix)
	return r.next.Create(ctx, item)
}

type cachedSubmission struct {
	value  submission.Submission
	exists bool
}
