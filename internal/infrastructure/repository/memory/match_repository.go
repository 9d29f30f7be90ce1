package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/typer-league/internal/domain/match"
)

type MatchRepository struct {
	mu    sync.RWMutex
	items map[int]match.Match
}

func NewMatchRepository(seed []match.Match) *MatchRepository {
	items := make(map[int]match.Match, len(seed))
	for _, item := range seed {
		items[item.ID] = item
	}

	return &MatchRepository{items: items}
}

func (r *MatchRepository) List(_ context.Context) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MatchRepository) GetByID(_ context.Context, matchID int) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[matchID]
	return item, ok, nil
}

func (r *MatchRepository) Upsert(_ context.Context, items []match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		r.items[item.ID] = item
	}
	return nil
}

func (r *MatchRepository) SetScore(_ context.Context, matchID int, score string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[matchID]
	if !ok {
		item = match.Match{ID: matchID}
	}
	item.Score = score
	r.items[matchID] = item
	return nil
}
