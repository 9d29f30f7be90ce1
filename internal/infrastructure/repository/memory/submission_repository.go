package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/typer-league/internal/domain/submission"
)

type SubmissionRepository struct {
	mu    sync.RWMutex
	items map[string]submission.Submission
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{items: make(map[string]submission.Submission)}
}

func (r *SubmissionRepository) List(_ context.Context) ([]submission.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]submission.Submission, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, cloneSubmission(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *SubmissionRepository) GetByUsername(_ context.Context, username string) (submission.Submission, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[username]
	if !ok {
		return submission.Submission{}, false, nil
	}
	return cloneSubmission(item), true, nil
}

func (r *SubmissionRepository) Create(_ context.Context, item submission.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.Username]; exists {
		return submission.ErrAlreadySubmitted
	}
	r.items[item.Username] = cloneSubmission(item)
	return nil
}

func cloneSubmission(item submission.Submission) submission.Submission {
	item.Predictions = append([]submission.Prediction(nil), item.Predictions...)
	return item
}
