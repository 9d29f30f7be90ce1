package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
	qb "github.com/riskibarqy/typer-league/internal/platform/querybuilder"
)

type SubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) List(ctx context.Context) ([]submission.Submission, error) {
	query, args, err := qb.Select("username", "submitted_at", "created_at", "deleted_at").
		From("submissions").
		Where(qb.IsNull("deleted_at")).
		OrderBy("username").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list submissions query: %w", err)
	}

	var rows []submissionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	if len(rows) == 0 {
		return []submission.Submission{}, nil
	}

	usernames := make([]string, 0, len(rows))
	for _, row := range rows {
		usernames = append(usernames, row.Username)
	}
	predictions, err := r.listPredictions(ctx, usernames)
	if err != nil {
		return nil, err
	}

	out := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, submissionFromRows(row, predictions[row.Username]))
	}
	return out, nil
}

func (r *SubmissionRepository) GetByUsername(ctx context.Context, username string) (submission.Submission, bool, error) {
	query, args, err := qb.Select("username", "submitted_at", "created_at", "deleted_at").
		From("submissions").
		Where(qb.Eq("username", username), qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return submission.Submission{}, false, fmt.Errorf("build get submission query: %w", err)
	}

	var row submissionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return submission.Submission{}, false, nil
		}
		return submission.Submission{}, false, fmt.Errorf("get submission: %w", err)
	}

	predictions, err := r.listPredictions(ctx, []string{username})
	if err != nil {
		return submission.Submission{}, false, err
	}
	return submissionFromRows(row, predictions[username]), true, nil
}

// Create writes the submission and its predictions in one transaction.
func (r *SubmissionRepository) Create(ctx context.Context, item submission.Submission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for submission create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.InsertModel("submissions", submissionInsertModel{
		Username:    item.Username,
		SubmittedAt: item.SubmittedAt.UTC(),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert submission query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return submission.ErrAlreadySubmitted
		}
		return fmt.Errorf("insert submission: %w", err)
	}

	if len(item.Predictions) > 0 {
		rows := make([]predictionTableModel, 0, len(item.Predictions))
		for _, p := range item.Predictions {
			rows = append(rows, predictionTableModel{
				Username: item.Username,
				MatchID:  p.MatchID,
				Home:     p.Home,
				Away:     p.Away,
				Bet:      p.Bet,
				Score:    p.Score,
			})
		}
		query, args, err := qb.InsertModels("submission_predictions", rows, "")
		if err != nil {
			return fmt.Errorf("build insert predictions query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert predictions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission create: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) listPredictions(ctx context.Context, usernames []string) (map[string][]submission.Prediction, error) {
	query, args, err := qb.Select("username", "match_id", "home", "away", "bet", "score").
		From("submission_predictions").
		Where(qb.In("username", usernames)).
		OrderBy("username", "match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}

	out := make(map[string][]submission.Prediction, len(usernames))
	for _, row := range rows {
		out[row.Username] = append(out[row.Username], submission.Prediction{
			MatchID: row.MatchID,
			Home:    row.Home,
			Away:    row.Away,
			Bet:     row.Bet,
			Score:   row.Score,
		})
	}
	return out, nil
}

func submissionFromRows(row submissionTableModel, predictions []submission.Prediction) submission.Submission {
	if predictions == nil {
		predictions = []submission.Prediction{}
	}
	return submission.Submission{
		Username:    row.Username,
		Predictions: predictions,
		SubmittedAt: row.SubmittedAt,
	}
}
