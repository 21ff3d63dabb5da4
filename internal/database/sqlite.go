package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DriverType reports which SQLite implementation was compiled in
// ("purego" for modernc.org/sqlite, "cgo" for mattn/go-sqlite3).
func DriverType() string {
	return driverType
}

// OpenSandbox opens a private, empty in-memory SQLite database.
//
// Every call gets a uniquely named shared-cache database, so two sandboxes
// never see each other's tables. The pool is pinned to a single connection
// that never expires: closing the last connection would drop the data.
// Attaching other database files is disabled on that connection.
func OpenSandbox(ctx context.Context) (*sql.DB, error) {
	name := "sandbox-" + uuid.NewString()

	db, err := sql.Open(driverName, memoryDSN(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := restrict(pingCtx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to restrict sqlite database: %w", err)
	}

	return db, nil
}
