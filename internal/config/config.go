package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port               int
	GinMode            string
	LogLevel           string
	CORSAllowedOrigins []string

	Sandbox SandboxConfig
	Query   QueryConfig

	// Postgres is nil when DB_HOST is not set; history then stays in memory.
	Postgres *PostgresConfig
	// Redis is nil when REDIS_ADDR is not set; the journal then stays in memory.
	Redis *RedisConfig
}

type SandboxConfig struct {
	MaxSandboxes int
	TTL          time.Duration
	JournalTTL   time.Duration
	SweepEvery   time.Duration
}

type QueryConfig struct {
	Timeout      time.Duration
	MaxRows      int
	HistoryLimit int
	MaxBodyBytes int
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads the configuration from the environment (.env is autoloaded).
func Load() (*Config, error) {
	cfg := &Config{
		GinMode:  os.Getenv("GIN_MODE"),
		LogLevel: getString("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if cfg.Sandbox.MaxSandboxes, err = getInt("SANDBOX_MAX", 256); err != nil {
		return nil, err
	}
	if cfg.Sandbox.MaxSandboxes <= 0 {
		return nil, fmt.Errorf("SANDBOX_MAX must be positive, got %d", cfg.Sandbox.MaxSandboxes)
	}
	if cfg.Sandbox.TTL, err = getDuration("SANDBOX_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Sandbox.JournalTTL, err = getDuration("JOURNAL_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Sandbox.SweepEvery, err = getDuration("SANDBOX_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	if cfg.Query.Timeout, err = getDuration("QUERY_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Query.MaxRows, err = getInt("QUERY_MAX_ROWS", 500); err != nil {
		return nil, err
	}
	if cfg.Query.MaxRows <= 0 {
		return nil, fmt.Errorf("QUERY_MAX_ROWS must be positive, got %d", cfg.Query.MaxRows)
	}
	if cfg.Query.HistoryLimit, err = getInt("HISTORY_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.Query.MaxBodyBytes, err = getInt("REQUEST_MAX_BYTES", 64<<10); err != nil {
		return nil, err
	}
	if cfg.Query.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("REQUEST_MAX_BYTES must be positive, got %d", cfg.Query.MaxBodyBytes)
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		pg := &PostgresConfig{
			Host:     host,
			Port:     getString("DB_PORT", "5432"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Database: os.Getenv("DB_DATABASE"),
		}
		if pg.User == "" {
			return nil, fmt.Errorf("DB_USERNAME environment variable is required when DB_HOST is set")
		}
		if pg.Database == "" {
			return nil, fmt.Errorf("DB_DATABASE environment variable is required when DB_HOST is set")
		}
		cfg.Postgres = pg
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rc := &RedisConfig{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		}
		if rc.DB, err = getInt("REDIS_DB", 0); err != nil {
			return nil, err
		}
		cfg.Redis = rc
	}

	return cfg, nil
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}
