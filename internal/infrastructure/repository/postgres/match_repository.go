package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/typer-league/internal/domain/match"
	qb "github.com/riskibarqy/typer-league/internal/platform/querybuilder"
)

const matchUpsertSuffix = `ON CONFLICT (id) DO UPDATE SET
	home = EXCLUDED.home,
	away = EXCLUDED.away,
	score = COALESCE(matches.score, EXCLUDED.score),
	kickoff_at = COALESCE(EXCLUDED.kickoff_at, matches.kickoff_at),
	updated_at = NOW(),
	deleted_at = NULL`

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func matchBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("id", "home", "away", "score", "kickoff_at", "created_at", "updated_at", "deleted_at").
		From("matches")
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	query, args, err := matchBaseSelectBuilder().
		Where(qb.IsNull("deleted_at")).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID int) (match.Match, bool, error) {
	query, args, err := matchBaseSelectBuilder().
		Where(qb.Eq("id", matchID), qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}

	return matchFromRow(row), true, nil
}

// Upsert writes fixtures in one statement. A recorded score is never
// overwritten here; use SetScore.
func (r *MatchRepository) Upsert(ctx context.Context, items []match.Match) error {
	if len(items) == 0 {
		return nil
	}

	models := make([]matchInsertModel, 0, len(items))
	for _, item := range items {
		models = append(models, matchInsertModel{
			ID:        item.ID,
			Home:      item.Home,
			Away:      item.Away,
			Score:     nullString(item.Score),
			KickoffAt: nullTime(item.KickoffAt),
		})
	}

	query, args, err := qb.InsertModels("matches", models, matchUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert matches query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert matches: %w", err)
	}
	return nil
}

func (r *MatchRepository) SetScore(ctx context.Context, matchID int, score string) error {
	query, args, err := qb.Update("matches").
		Set("score", score).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID), qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set match score query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set match score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set match score: match id=%d not found", matchID)
	}
	return nil
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:        row.ID,
		Home:      row.Home,
		Away:      row.Away,
		Score:     row.Score.String,
		KickoffAt: timePtr(row.KickoffAt),
		UpdatedAt: row.UpdatedAt,
	}
}
