package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/typer-league/internal/domain/leaderboard"
	qb "github.com/riskibarqy/typer-league/internal/platform/querybuilder"
)

var snapshotJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// SnapshotRepository keeps only the newest computed snapshot.
type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) GetLatest(ctx context.Context) (leaderboard.Snapshot, bool, error) {
	query, args, err := qb.Select("id", "fingerprint", "round_count", "user_count", "payload", "computed_at", "created_at").
		From("leaderboard_snapshots").
		OrderBy("computed_at DESC", "created_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return leaderboard.Snapshot{}, false, fmt.Errorf("build get latest snapshot query: %w", err)
	}

	var row snapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return leaderboard.Snapshot{}, false, nil
		}
		return leaderboard.Snapshot{}, false, fmt.Errorf("get latest snapshot: %w", err)
	}

	snapshot, err := decodeSnapshotPayload(row.Payload)
	if err != nil {
		return leaderboard.Snapshot{}, false, err
	}
	snapshot.ID = row.ID
	snapshot.Fingerprint = row.Fingerprint
	snapshot.RoundCount = row.RoundCount
	snapshot.ComputedAt = row.ComputedAt.UTC()
	return snapshot, true, nil
}

// Save inserts the snapshot and drops every older row in one transaction.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot leaderboard.Snapshot) error {
	payload, err := encodeSnapshotPayload(snapshot)
	if err != nil {
		return err
	}

	insertQuery, insertArgs, err := qb.InsertModel("leaderboard_snapshots", snapshotInsertModel{
		ID:          snapshot.ID,
		Fingerprint: snapshot.Fingerprint,
		RoundCount:  snapshot.RoundCount,
		UserCount:   len(snapshot.Entries),
		Payload:     payload,
		ComputedAt:  snapshot.ComputedAt.UTC(),
	}, "ON CONFLICT (id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert snapshot query: %w", err)
	}
	pruneQuery, pruneArgs, err := pruneSnapshotsQuery(snapshot.ID)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for snapshot save: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, pruneQuery, pruneArgs...); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot save: %w", err)
	}
	return nil
}

func pruneSnapshotsQuery(keepID string) (string, []any, error) {
	query, args, err := qb.DeleteFrom("leaderboard_snapshots").
		Where(qb.Expr("id <> ?", keepID)).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build prune snapshots query: %w", err)
	}
	return query, args, nil
}

func encodeSnapshotPayload(snapshot leaderboard.Snapshot) (string, error) {
	raw, err := snapshotJSON.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode snapshot payload: %w", err)
	}
	return string(raw), nil
}

func decodeSnapshotPayload(raw []byte) (leaderboard.Snapshot, error) {
	var snapshot leaderboard.Snapshot
	if err := snapshotJSON.Unmarshal(raw, &snapshot); err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("decode snapshot payload: %w", err)
	}
	return snapshot, nil
}
