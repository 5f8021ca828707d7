package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"clypzy/internal/app/bootstrap"
	"clypzy/internal/platform/config"
	"clypzy/internal/platform/observability"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Run outbox relays, the view-sync consumer and wallet reconciliation
// until SIGINT or SIGTERM.
func main() {
	if err := run(); err != nil {
		slog.Error("clypzy worker stopped with error", "event", "worker_stopped", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("clypzy worker starting", "event", "worker_starting", "db_driver", cfg.DBDriver)
	app, err := bootstrap.BuildWorker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("worker shutdown close failed", "event", "worker_close_failed", "error", err.Error())
		}
	}()
	return app.Run(ctx)
}
