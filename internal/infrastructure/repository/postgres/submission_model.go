package postgres

import "time"

type submissionTableModel struct {
	Username    string     `db:"username"`
	SubmittedAt time.Time  `db:"submitted_at"`
	CreatedAt   time.Time  `db:"created_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

type submissionInsertModel struct {
	Username    string    `db:"username"`
	SubmittedAt time.Time `db:"submitted_at"`
}

type predictionTableModel struct {
	Username string `db:"username"`
	MatchID  int    `db:"match_id"`
	Home     string `db:"home"`
	Away     string `db:"away"`
	Bet      string `db:"bet"`
	Score    string `db:"score"`
}
