package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJournalRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	repo := NewMemoryJournalRepository(time.Hour)
	repo.now = func() time.Time { return now }

	id := uuid.New()
	require.NoError(t, repo.Append(ctx, id, "CREATE TABLE a (x)"))
	require.NoError(t, repo.Append(ctx, id, "INSERT INTO a VALUES (1)"))

	stmts, err := repo.Statements(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE a (x)", "INSERT INTO a VALUES (1)"}, stmts)

	// Touch extends the expiry.
	now = now.Add(50 * time.Minute)
	require.NoError(t, repo.Touch(ctx, id))
	now = now.Add(50 * time.Minute)
	stmts, err = repo.Statements(ctx, id)
	require.NoError(t, err)
	assert.Len(t, stmts, 2)

	// Past the ttl the journal is gone.
	now = now.Add(2 * time.Hour)
	stmts, err = repo.Statements(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, stmts)

	// Expired entries are swept on the next append.
	other := uuid.New()
	require.NoError(t, repo.Append(ctx, other, "SELECT 1"))
	assert.NotContains(t, repo.entries, id)
}

func TestMemoryJournalRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryJournalRepository(time.Hour)

	id := uuid.New()
	require.NoError(t, repo.Append(ctx, id, "CREATE TABLE a (x)"))
	require.NoError(t, repo.Delete(ctx, id))

	stmts, err := repo.Statements(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, stmts)

	// Touching an unknown journal is a no-op.
	require.NoError(t, repo.Touch(ctx, uuid.New()))
}
