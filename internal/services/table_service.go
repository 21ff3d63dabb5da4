package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"sqlplayground/internal/logging"
	"sqlplayground/internal/models"
	"sqlplayground/internal/repositories"
	"sqlplayground/internal/utils"
)

var ErrTableNotFound = errors.New("table not found")

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// TableService browses and drops the tables of a sandbox.
type TableService struct {
	sandboxes *SandboxService
	journal   repositories.JournalStore
}

func NewTableService(sandboxes *SandboxService, journal repositories.JournalStore) *TableService {
	return &TableService{
		sandboxes: sandboxes,
		journal:   journal,
	}
}

type TablePage struct {
	Table  string              `json:"table"`
	Total  int64               `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
	Result *models.QueryResult `json:"result"`
}

func (s *TableService) GetRows(ctx context.Context, sandboxID uuid.UUID, table string, limit, offset int) (*TablePage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	sb, err := s.sandboxes.Get(ctx, sandboxID)
	if err != nil {
		return nil, err
	}

	page := &TablePage{Table: table, Limit: limit, Offset: offset}
	err = sb.withDB(func(db *sql.DB) error {
		if err := ensureTable(ctx, db, table); err != nil {
			return err
		}

		tableRepo := repositories.NewTableRepository(db)
		total, err := tableRepo.Count(ctx, table)
		if err != nil {
			return fmt.Errorf("failed to count rows: %w", err)
		}
		page.Total = total

		rows, err := tableRepo.Rows(ctx, table, limit, offset)
		if err != nil {
			return fmt.Errorf("failed to read rows: %w", err)
		}
		defer rows.Close()

		page.Result, err = scanRows(rows, 0)
		return err
	})
	if err != nil {
		return nil, err
	}

	page.Result.Message = MsgSuccess
	return page, nil
}

// DeleteTable drops a table and journals the drop.
func (s *TableService) DeleteTable(ctx context.Context, sandboxID uuid.UUID, table string) error {
	sb, err := s.sandboxes.Get(ctx, sandboxID)
	if err != nil {
		return err
	}

	err = sb.withDB(func(db *sql.DB) error {
		if err := ensureTable(ctx, db, table); err != nil {
			return err
		}

		// Start transaction
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		defer tx.Rollback()

		stmt, err := repositories.NewTableRepository(db).Delete(ctx, tx, table)
		if err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		if err := s.journal.Append(ctx, sandboxID, stmt); err != nil {
			logging.Warn("failed to append to journal", "sandbox_id", sandboxID, "err", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Info("table dropped", "sandbox_id", sandboxID, "table", table)
	return nil
}

func ensureTable(ctx context.Context, db *sql.DB, table string) error {
	tables, err := repositories.NewSchemaRepository(db).GetTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	if !utils.Contains(tables, table) {
		return ErrTableNotFound
	}
	return nil
}
