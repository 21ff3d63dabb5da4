package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlplayground/internal/models"
)

func TestMemoryQueryHistoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryQueryHistoryRepository(3, time.Hour)

	sandbox := uuid.New()
	other := uuid.New()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.QueryHistory{
			SandboxID: sandbox,
			QueryText: fmt.Sprintf("SELECT %d", i),
			Success:   true,
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.QueryHistory{SandboxID: other, QueryText: "SELECT 'other'"}))

	list, err := repo.GetBySandboxID(ctx, sandbox, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "SELECT 4", list[0].QueryText)
	assert.Equal(t, "SELECT 2", list[2].QueryText)
	assert.NotEqual(t, uuid.Nil, list[0].ID)

	list, err = repo.GetBySandboxID(ctx, sandbox, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SELECT 4", list[0].QueryText)

	require.NoError(t, repo.DeleteBySandboxID(ctx, sandbox))
	list, err = repo.GetBySandboxID(ctx, sandbox, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.GetBySandboxID(ctx, other, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryQueryHistoryRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryQueryHistoryRepository(10, time.Minute)

	now := time.Now()
	repo.now = func() time.Time { return now }

	stale := uuid.New()
	require.NoError(t, repo.Create(ctx, &models.QueryHistory{SandboxID: stale, QueryText: "SELECT 1"}))

	now = now.Add(2 * time.Minute)

	list, err := repo.GetBySandboxID(ctx, stale, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	// The next write sweeps the expired sandbox out of memory.
	fresh := uuid.New()
	require.NoError(t, repo.Create(ctx, &models.QueryHistory{SandboxID: fresh, QueryText: "SELECT 2"}))
	assert.NotContains(t, repo.entries, stale)

	list, err = repo.GetBySandboxID(ctx, fresh, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
