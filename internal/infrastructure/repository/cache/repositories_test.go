package cache

import (
	"testing"
	"time"

	"github.com/riskibarqy/typer-league/internal/domain/match"
	"github.com/riskibarqy/typer-league/internal/domain/submission"
	matchmock "github.com/riskibarqy/typer-league/internal/mocks/domain/match"
	submissionmock "github.com/riskibarqy/typer-league/internal/mocks/domain/submission"
	basecache "github.com/riskibarqy/typer-league/internal/platform/cache"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMatchRepository_CachesUntilWrite(t *testing.T) {
	t.Parallel()

	next := matchmock.NewRepository(t)
	repo := NewMatchRepository(next, basecache.NewStore(time.Minute))

	next.On("List", mock.Anything).Return([]match.Match{{ID: 1, Home: "A", Away: "B"}}, nil).Twice()
	next.On("SetScore", mock.Anything, 1, "1:0").Return(nil).Once()

	first, err := repo.List(t.Context())
	require.NoError(t, err)
	first[0].Home = "mutated"

	second, err := repo.List(t.Context())
	require.NoError(t, err)
	require.Equal(t, "A", second[0].Home)

	require.NoError(t, repo.SetScore(t.Context(), 1, "1:0"))

	_, err = repo.List(t.Context())
	require.NoError(t, err)
}

func TestMatchRepository_CachesMissingMatch(t *testing.T) {
	t.Parallel()

	next := matchmock.NewRepository(t)
	repo := NewMatchRepository(next, basecache.NewStore(time.Minute))

	next.On("GetByID", mock.Anything, 42).Return(match.Match{}, false, nil).Once()

	for i := 0; i < 3; i++ {
		_, ok, err := repo.GetByID(t.Context(), 42)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestSubmissionRepository_CreateInvalidates(t *testing.T) {
	t.Parallel()

	next := submissionmock.NewRepository(t)
	repo := NewSubmissionRepository(next, basecache.NewStore(time.Minute))
	item := submission.Submission{Username: "ana"}

	next.On("GetByUsername", mock.Anything, "ana").Return(submission.Submission{}, false, nil).Once()
	next.On("Create", mock.Anything, item).Return(nil).Once()
	next.On("GetByUsername", mock.Anything, "ana").Return(item, true, nil).Once()

	_, ok, err := repo.GetByUsername(t.Context(), "ana")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Create(t.Context(), item))

	_, ok, err = repo.GetByUsername(t.Context(), "ana")
	require.NoError(t, err)
	require.True(t, ok)
}
