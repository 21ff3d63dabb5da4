package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sqlplayground/internal/config"
	"sqlplayground/internal/logging"
)

// Connect opens the Postgres pool that stores query history.
func Connect(ctx context.Context, cfg *config.PostgresConfig) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres configuration is required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("DB_HOST environment variable is required")
	}

	// Build connection string using postgres:// URL format
	userInfo := url.UserPassword(cfg.User, cfg.Password)
	dsn := fmt.Sprintf(
		"postgres://%s@%s:%s/%s?sslmode=disable",
		userInfo.String(),
		cfg.Host,
		cfg.Port,
		url.PathEscape(cfg.Database),
	)

	logging.Info("connecting to history database",
		"dsn", fmt.Sprintf("postgres://%s:***@%s:%s/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database))

	return ConnectDSN(ctx, dsn)
}

// ConnectDSN opens and pings a pool for an already formatted connection string.
func ConnectDSN(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string (check your .env file): %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info("history database connection pool established")
	return pool, nil
}
