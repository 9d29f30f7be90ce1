package submission

import "context"

type Repository interface {
	// List returns every submission ordered by username.
	List(ctx context.Context) ([]Submission, error)
	GetByUsername(ctx context.Context, username string) (Submission, bool, error)
	// Create stores a new submission or fails with ErrAlreadySubmitted.
	Create(ctx context.Context, item Submission) error
}
