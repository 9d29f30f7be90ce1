package match

import "context"

type Repository interface {
	List(ctx context.Context) ([]Match, error)
	GetByID(ctx context.Context, matchID int) (Match, bool, error)
	Upsert(ctx context.Context, items []Match) error
	SetScore(ctx context.Context, matchID int, score string) error
}
