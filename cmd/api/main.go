package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sqlplayground/internal/config"
	"sqlplayground/internal/logging"
	"sqlplayground/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("invalid configuration", "err", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	srv, cleanup, err := server.NewServer(ctx, cfg)
	if err != nil {
		logging.Fatal("failed to start server", "err", err)
	}

	go func() {
		logging.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal("http server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("server shutdown", "err", err)
	}
	stop()
	cleanup()
	logging.Info("server exiting")
}
