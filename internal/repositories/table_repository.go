package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"sqlplayground/internal/utils"
)

type TableRepository struct {
	db *sql.DB
}

func NewTableRepository(db *sql.DB) *TableRepository {
	return &TableRepository{
		db: db,
	}
}

// Rows pages through a table in rowid order. WITHOUT ROWID tables fall
// back to primary key order, which is how SQLite stores them.
func (r *TableRepository) Rows(ctx context.Context, table string, limit, offset int) (*sql.Rows, error) {
	name := utils.QuoteIdent(table)

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s ORDER BY rowid LIMIT ? OFFSET ?", name), limit, offset)
	if err == nil || !strings.Contains(err.Error(), "no such column: rowid") {
		return rows, err
	}

	return r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s LIMIT ? OFFSET ?", name), limit, offset)
}

func (r *TableRepository) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT count(*) FROM %s", utils.QuoteIdent(table))
	err := r.db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

// Delete drops the table and returns the statement that did it.
func (r *TableRepository) Delete(ctx context.Context, tx *sql.Tx, table string) (string, error) {
	// Use quoted identifiers to prevent SQL injection
	query := "DROP TABLE " + utils.QuoteIdent(table)

	if _, err := tx.ExecContext(ctx, query); err != nil {
		return "", fmt.Errorf("failed to drop table: %w", err)
	}

	return query, nil
}
