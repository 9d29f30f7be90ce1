package postgres

import "time"

type snapshotTableModel struct {
	ID          string    `db:"id"`
	Fingerprint string    `db:"fingerprint"`
	RoundCount  int       `db:"round_count"`
	UserCount   int       `db:"user_count"`
	Payload     []byte    `db:"payload"`
	ComputedAt  time.Time `db:"computed_at"`
	CreatedAt   time.Time `db:"created_at"`
}

type snapshotInsertModel struct {
	ID          string    `db:"id"`
	Fingerprint string    `db:"fingerprint"`
	RoundCount  int       `db:"round_count"`
	UserCount   int       `db:"user_count"`
	Payload     string    `db:"payload"`
	ComputedAt  time.Time `db:"computed_at"`
}
