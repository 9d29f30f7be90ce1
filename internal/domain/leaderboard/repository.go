package leaderboard

import "context"

// SnapshotRepository retains the latest computed snapshot.
type SnapshotRepository interface {
	GetLatest(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, snapshot Snapshot) error
}
