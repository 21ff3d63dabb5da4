package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"sqlplayground/internal/models"
)

// SchemaRepository reads the SQLite catalog of one sandbox database.
type SchemaRepository struct {
	db *sql.DB
}

func NewSchemaRepository(db *sql.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// GetTables returns user table names in creation order.
func (r *SchemaRepository) GetTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY rowid
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tables, nil
}

// GetColumns returns PRAGMA table_info rows for a table.
func (r *SchemaRepository) GetColumns(ctx context.Context, table string) ([]models.Column, error) {
	query := `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`

	rows, err := r.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var (
			col     models.Column
			notNull int
			dflt    sql.NullString
		)
		if err := rows.Scan(&col.CID, &col.Name, &col.DataType, &notNull, &dflt, &col.PK); err != nil {
			return nil, err
		}
		col.NotNull = notNull != 0
		if dflt.Valid {
			v := dflt.String
			col.Default = &v
		}
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return columns, nil
}

// GetForeignKeys returns PRAGMA foreign_key_list rows for a table.
func (r *SchemaRepository) GetForeignKeys(ctx context.Context, table string) ([]models.ForeignKey, error) {
	query := `SELECT id, "from", "table", "to", on_update, on_delete FROM pragma_foreign_key_list(?) ORDER BY id, seq`

	rows, err := r.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []models.ForeignKey
	for rows.Next() {
		var (
			fk models.ForeignKey
			to sql.NullString
		)
		if err := rows.Scan(&fk.ID, &fk.FromColumn, &fk.ToTable, &to, &fk.OnUpdate, &fk.OnDelete); err != nil {
			return nil, err
		}
		// A NULL target column means the parent's primary key.
		fk.ToColumn = to.String
		fks = append(fks, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return fks, nil
}

// GetUniqueColumns returns columns covered on their own by a UNIQUE
// constraint or unique index. Primary key indexes are not included.
func (r *SchemaRepository) GetUniqueColumns(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT ii.name
		FROM pragma_index_list(?) AS il
		JOIN pragma_index_info(il.name) AS ii
		WHERE il."unique" = 1
			AND il.origin != 'pk'
			AND (SELECT count(*) FROM pragma_index_info(il.name)) = 1
		ORDER BY il.seq
	`

	rows, err := r.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query unique indexes: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var col sql.NullString
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("failed to scan unique index: %w", err)
		}
		// Expression indexes have no column name.
		if col.Valid {
			cols = append(cols, col.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unique indexes: %w", err)
	}

	return cols, nil
}
