package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"sqlplayground/internal/models"
)

const defaultHistoryLimit = 100

// QueryHistoryStore records every run of every sandbox.
type QueryHistoryStore interface {
	Create(ctx context.Context, queryHistory *models.QueryHistory) error
	GetBySandboxID(ctx context.Context, sandboxID uuid.UUID, limit int) ([]models.QueryHistory, error)
	DeleteBySandboxID(ctx context.Context, sandboxID uuid.UUID) error
}

type QueryHistoryRepository struct {
	pool *pgxpool.Pool
}

func NewQueryHistoryRepository(pool *pgxpool.Pool) *QueryHistoryRepository {
	return &QueryHistoryRepository{pool: pool}
}

func (r *QueryHistoryRepository) Create(ctx context.Context, queryHistory *models.QueryHistory) error {
	queryHistory.Prepare()

	query := `
		INSERT INTO query_history (id, sandbox_id, query_text, executed_at, success, execution_time_ms, error_message, hint_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		queryHistory.ID,
		queryHistory.SandboxID,
		queryHistory.QueryText,
		queryHistory.ExecutedAt,
		queryHistory.Success,
		queryHistory.ExecutionTimeMs,
		queryHistory.ErrorMessage,
		queryHistory.HintID,
	)

	return err
}

func (r *QueryHistoryRepository) GetBySandboxID(ctx context.Context, sandboxID uuid.UUID, limit int) ([]models.QueryHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT id, sandbox_id, query_text, executed_at, success, execution_time_ms, error_message, hint_id
		FROM query_history WHERE sandbox_id = $1
		ORDER BY executed_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, sandboxID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queries []models.QueryHistory
	for rows.Next() {
		var qh models.QueryHistory
		err := rows.Scan(
			&qh.ID,
			&qh.SandboxID,
			&qh.QueryText,
			&qh.ExecutedAt,
			&qh.Success,
			&qh.ExecutionTimeMs,
			&qh.ErrorMessage,
			&qh.HintID,
		)
		if err != nil {
			return nil, err
		}
		queries = append(queries, qh)
	}

	return queries, rows.Err()
}

func (r *QueryHistoryRepository) DeleteBySandboxID(ctx context.Context, sandboxID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM query_history WHERE sandbox_id = $1`, sandboxID)
	return err
}

type historyEntry struct {
	runs      []models.QueryHistory
	expiresAt time.Time
}

// MemoryQueryHistoryRepository keeps the most recent runs per sandbox in
// process memory. Used when no Postgres is configured. A sandbox's runs
// expire ttl after its last run, like its journal; a zero ttl keeps them.
type MemoryQueryHistoryRepository struct {
	mu       sync.RWMutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	entries  map[uuid.UUID]*historyEntry
}

func NewMemoryQueryHistoryRepository(capacity int, ttl time.Duration) *MemoryQueryHistoryRepository {
	if capacity <= 0 {
		capacity = defaultHistoryLimit
	}
	return &MemoryQueryHistoryRepository{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[uuid.UUID]*historyEntry),
	}
}

func (r *MemoryQueryHistoryRepository) Create(_ context.Context, queryHistory *models.QueryHistory) error {
	queryHistory.Prepare()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()

	e, ok := r.entries[queryHistory.SandboxID]
	if !ok {
		e = &historyEntry{}
		r.entries[queryHistory.SandboxID] = e
	}
	e.runs = append(e.runs, *queryHistory)
	if len(e.runs) > r.capacity {
		e.runs = append([]models.QueryHistory(nil), e.runs[len(e.runs)-r.capacity:]...)
	}
	e.expiresAt = r.now().Add(r.ttl)
	return nil
}

func (r *MemoryQueryHistoryRepository) GetBySandboxID(_ context.Context, sandboxID uuid.UUID, limit int) ([]models.QueryHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[sandboxID]
	if !ok || r.expired(e) {
		return []models.QueryHistory{}, nil
	}
	out := make([]models.QueryHistory, 0, min(limit, len(e.runs)))
	for i := len(e.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, e.runs[i])
	}
	return out, nil
}

func (r *MemoryQueryHistoryRepository) DeleteBySandboxID(_ context.Context, sandboxID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, sandboxID)
	return nil
}

func (r *MemoryQueryHistoryRepository) expired(e *historyEntry) bool {
	return r.ttl > 0 && r.now().After(e.expiresAt)
}

func (r *MemoryQueryHistoryRepository) sweepLocked() {
	for id, e := range r.entries {
		if r.expired(e) {
			delete(r.entries, id)
		}
	}
}
