package tournament_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podiumlab/racenight/src/domain/shared"
	"github.com/podiumlab/racenight/src/domain/tournament"
	infra "github.com/podiumlab/racenight/src/infra/tournament"
)

func newTournament(t *testing.T, id shared.TournamentID, code shared.InviteCode, createdAt time.Time) *tournament.Tournament {
	t.Helper()
	tour, err := tournament.NewTournament(id, "Friday Night", 8, code, createdAt)
	require.NoError(t, err)
	return tour
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := infra.NewMemoryRepository()
	tour := newTournament(t, "t-1", "code-1", time.Now())

	require.NoError(t, repo.Create(ctx, tour))
	assert.EqualValues(t, 1, tour.Version)

	got, err := repo.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, tour.ID, got.ID)
	assert.EqualValues(t, 1, got.Version)

	byCode, err := repo.GetByInviteCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, tour.ID, byCode.ID)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, tournament.ErrTournamentNotFound)
}

func TestMemoryRepository_DuplicateCreate(t *testing.T) {
	ctx := context.Background()
	repo := infra.NewMemoryRepository()

	require.NoError(t, repo.Create(ctx, newTournament(t, "t-1", "code-1", time.Now())))
	assert.ErrorIs(t, repo.Create(ctx, newTournament(t, "t-1", "code-2", time.Now())), shared.ErrConflict)
	assert.ErrorIs(t, repo.Create(ctx, newTournament(t, "t-2", "code-1", time.Now())), shared.ErrConflict)
}

func TestMemoryRepository_CompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := infra.NewMemoryRepository()
	require.NoError(t, repo.Create(ctx, newTournament(t, "t-1", "code-1", time.Now())))

	// Two readers pick up the same version.
	first, err := repo.Get(ctx, "t-1")
	require.NoError(t, err)
	second, err := repo.Get(ctx, "t-1")
	require.NoError(t, err)

	_, err = first.Join("p-1", "Alice", time.Now())
	require.NoError(t, err)
	updated, err := repo.Update(ctx, first)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated.Version)

	// The stale writer loses.
	_, err = second.Join("p-2", "Bob", time.Now())
	require.NoError(t, err)
	_, err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConflict)

	// After a re-read the write goes through and both joins survive.
	fresh, err := repo.Get(ctx, "t-1")
	require.NoError(t, err)
	_, err = fresh.Join("p-2", "Bob", time.Now())
	require.NoError(t, err)
	final, err := repo.Update(ctx, fresh)
	require.NoError(t, err)
	assert.Len(t, final.Players, 2)
	assert.EqualValues(t, 3, final.Version)
}

func TestMemoryRepository_IsolatesStoredState(t *testing.T) {
	ctx := context.Background()
	repo := infra.NewMemoryRepository()
	require.NoError(t, repo.Create(ctx, newTournament(t, "t-1", "code-1", time.Now())))

	got, err := repo.Get(ctx, "t-1")
	require.NoError(t, err)
	_, err = got.Join("p-1", "Alice", time.Now())
	require.NoError(t, err)

	// The mutation must not leak into the store without an Update.
	again, err := repo.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Empty(t, again.Players)
}

func TestMemoryRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := infra.NewMemoryRepository()
	base := time.Now()

	require.NoError(t, repo.Create(ctx, newTournament(t, "t-old", "code-1", base.Add(-2*time.Hour))))
	require.NoError(t, repo.Create(ctx, newTournament(t, "t-new", "code-2", base)))
	require.NoError(t, repo.Create(ctx, newTournament(t, "t-mid", "code-3", base.Add(-time.Hour))))

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.EqualValues(t, "t-new", list[0].ID)
	assert.EqualValues(t, "t-mid", list[1].ID)
	assert.EqualValues(t, "t-old", list[2].ID)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.EqualValues(t, "t-mid", page[0].ID)

	empty, err := repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
