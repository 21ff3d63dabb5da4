package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"sqlplayground/internal/config"
	"sqlplayground/internal/database"
	"sqlplayground/internal/handlers"
	"sqlplayground/internal/hints"
	"sqlplayground/internal/logging"
	"sqlplayground/internal/middlewares"
	"sqlplayground/internal/repositories"
	"sqlplayground/internal/routes"
	"sqlplayground/internal/services"
	"sqlplayground/internal/web"
)

// NewServer wires stores, services and routes. The returned cleanup stops
// the sandbox janitor and closes every connection; call it after Shutdown.
func NewServer(ctx context.Context, cfg *config.Config) (*http.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	history, err := newHistoryStore(ctx, cfg, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	journal, err := newJournalStore(ctx, cfg, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// Dependency injection
	sandboxService := services.NewSandboxService(journal, history, services.SandboxOptions{
		MaxSandboxes: cfg.Sandbox.MaxSandboxes,
		TTL:          cfg.Sandbox.TTL,
		SweepEvery:   cfg.Sandbox.SweepEvery,
	})
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	go sandboxService.Run(janitorCtx)
	closers = append(closers, func() {
		stopJanitor()
		sandboxService.Close()
	})

	matcher := hints.Default()
	schemaService := services.NewSchemaService(sandboxService)
	queryService := services.NewQueryService(sandboxService, schemaService, journal, history, matcher, services.QueryOptions{
		Timeout: cfg.Query.Timeout,
		MaxRows: cfg.Query.MaxRows,
	})

	renderer, err := web.NewRenderer()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middlewares.RequestLogger(),
		cors.New(corsConfig(cfg.CORSAllowedOrigins)),
		middlewares.LimitBody(int64(cfg.Query.MaxBodyBytes)),
	)
	router.SetHTMLTemplate(renderer.Templates())

	routes.RegisterRoutes(router, sandboxService, routes.Handlers{
		Sandbox: handlers.NewSandboxHandler(sandboxService),
		Query:   handlers.NewQueryHandler(queryService, renderer, cfg.Query.HistoryLimit),
		Schema:  handlers.NewSchemaHandler(schemaService, renderer),
		Table:   handlers.NewTableHandler(services.NewTableService(sandboxService, journal)),
		Hint:    handlers.NewHintHandler(matcher),
		Page:    handlers.NewPageHandler(),
	})

	logging.Info("server configured",
		"sqlite", database.DriverType(),
		"max_sandboxes", cfg.Sandbox.MaxSandboxes,
		"sandbox_ttl", cfg.Sandbox.TTL,
		"hints", len(matcher.Rules()))

	// Create and configure the HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Query.Timeout + 30*time.Second,
	}

	return server, cleanup, nil
}

func newHistoryStore(ctx context.Context, cfg *config.Config, closers *[]func()) (repositories.QueryHistoryStore, error) {
	if cfg.Postgres == nil {
		logging.Info("DB_HOST not set, keeping query history in memory")
		return repositories.NewMemoryQueryHistoryRepository(cfg.Query.HistoryLimit, cfg.Sandbox.JournalTTL), nil
	}

	pool, err := database.Connect(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	*closers = append(*closers, pool.Close)

	if err := database.RunMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repositories.NewQueryHistoryRepository(pool), nil
}

func newJournalStore(ctx context.Context, cfg *config.Config, closers *[]func()) (repositories.JournalStore, error) {
	if cfg.Redis == nil {
		logging.Info("REDIS_ADDR not set, keeping sandbox journals in memory")
		return repositories.NewMemoryJournalRepository(cfg.Sandbox.JournalTTL), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection and fail fast with a clear message
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
	}
	*closers = append(*closers, func() { rdb.Close() })
	logging.Info("connected to Redis successfully", "addr", cfg.Redis.Addr)

	return repositories.NewRedisRepository(rdb, cfg.Sandbox.JournalTTL), nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	return c
}
