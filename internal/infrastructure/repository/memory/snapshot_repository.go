package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/typer-league/internal/domain/leaderboard"
)

// SnapshotRepository keeps only the latest snapshot.
type SnapshotRepository struct {
	mu     sync.RWMutex
	latest *leaderboard.Snapshot
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{}
}

func (r *SnapshotRepository) GetLatest(_ context.Context) (leaderboard.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.latest == nil {
		return leaderboard.Snapshot{}, false, nil
	}
	return *r.latest, true, nil
}

func (r *SnapshotRepository) Save(_ context.Context, snapshot leaderboard.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.latest = &snapshot
	return nil
}
