package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"sqlplayground/internal/logging"
)

func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		createQueryHistoryTable,
		addHintColumnToQueryHistory,
	}

	for i, migration := range migrations {
		logging.Debug("running migration", "step", i+1, "total", len(migrations))
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	logging.Info("all migrations completed successfully")
	return nil
}

const createQueryHistoryTable = `
CREATE TABLE IF NOT EXISTS query_history (
  id UUID PRIMARY KEY,
  sandbox_id UUID NOT NULL,
  query_text TEXT NOT NULL,
  executed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  success BOOLEAN NOT NULL,
  execution_time_ms INT NOT NULL DEFAULT 0,
  error_message TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_query_history_sandbox_id ON query_history(sandbox_id);
CREATE INDEX IF NOT EXISTS idx_query_history_executed_at ON query_history(executed_at);
`

const addHintColumnToQueryHistory = `
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1 FROM information_schema.columns
    WHERE table_name = 'query_history' AND column_name = 'hint_id'
  ) THEN
    ALTER TABLE query_history ADD COLUMN hint_id TEXT NOT NULL DEFAULT '';
  END IF;
END$$;
`
