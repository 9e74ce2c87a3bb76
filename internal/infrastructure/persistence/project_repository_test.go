package persistence

import (
	"context"
	"testing"

	"github.com/buildledger/backend/internal/domain/project"
	"github.com/buildledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredProject(t *testing.T, repo *GormProjectRepository, name, client string) *project.Project {
	t.Helper()

	p, err := project.NewProject(name, client, "100 Site Rd")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func TestGormProjectRepository_SaveAndFindByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	p := newStoredProject(t, repo, "Riverside Duplex", "Hartley")

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Riverside Duplex", found.Name)
	assert.Equal(t, project.ProjectStatusActive, found.Status)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProjectRepository_FindAllAndExists(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	p := newStoredProject(t, repo, "Riverside Duplex", "Hartley")
	newStoredProject(t, repo, "Mill Street Remodel", "Okafor")

	t.Run("search matches name or client", func(t *testing.T) {
		projects, err := repo.FindAll(ctx, shared.Filter{Search: "Riverside", Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "Riverside Duplex", projects[0].Name)

		projects, err = repo.FindAll(ctx, shared.Filter{Search: "Okafor", Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Len(t, projects, 1)
	})

	t.Run("count", func(t *testing.T) {
		count, err := repo.Count(ctx, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := repo.Exists(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGormSubProjectRepository(t *testing.T) {
	db := newTestDB(t)
	projects := NewGormProjectRepository(db)
	repo := NewGormSubProjectRepository(db)
	ctx := context.Background()

	p := newStoredProject(t, projects, "Riverside Duplex", "Hartley")

	first, err := project.NewSubProject(p.ID, "Foundation")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err := project.NewSubProject(p.ID, "Framing")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, second))

	found, err := repo.FindByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, found, 2)
	// Oldest first
	assert.Equal(t, "Foundation", found[0].Name)

	ok, err := repo.Exists(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
