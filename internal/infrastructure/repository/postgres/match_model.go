package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID        int            `db:"id"`
	Home      string         `db:"home"`
	Away      string         `db:"away"`
	Score     sql.NullString `db:"score"`
	KickoffAt sql.NullTime   `db:"kickoff_at"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
	DeletedAt *time.Time     `db:"deleted_at"`
}

type matchInsertModel struct {
	ID        int            `db:"id"`
	Home      string         `db:"home"`
	Away      string         `db:"away"`
	Score     sql.NullString `db:"score"`
	KickoffAt sql.NullTime   `db:"kickoff_at"`
}
