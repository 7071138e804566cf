package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/datasweeper/internal/config"
	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/metrics"
	"github.com/JonMunkholm/datasweeper/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	slog.Info("configuration loaded", "config", cfg)

	var rec *metrics.Recorder
	var observer core.Observer
	if cfg.Metrics.Enabled {
		rec = metrics.New()
		observer = rec
	}

	service := core.NewService(core.ServiceConfig{
		PreviewRows:          cfg.Pipeline.PreviewRows,
		ChartSeries:          cfg.Pipeline.ChartSeries,
		MaxFilesPerBatch:     cfg.Upload.MaxFiles,
		MaxConcurrentBatches: cfg.Upload.MaxConcurrent,
		MaxWait:              cfg.Upload.MaxWaitTime,
		SessionTTL:           cfg.Pipeline.SessionTTL,
		Observer:             observer,
	})

	server := web.NewServer(service, cfg, rec)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go service.StartJanitor(ctx, cfg.Pipeline.JanitorInterval)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.Status(); status.Batches.Active > 0 {
			slog.Info("waiting for batches to complete", "active", status.Batches.Active)
			if err := service.WaitForBatches(shutdownCtx); err != nil {
				slog.Warn("batches did not complete in time", "error", err)
			} else {
				slog.Info("all batches completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
