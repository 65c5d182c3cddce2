package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nntexpressinc/safetybot/internal/api"
	"github.com/nntexpressinc/safetybot/internal/config"
	"github.com/nntexpressinc/safetybot/internal/ingest"
	"github.com/nntexpressinc/safetybot/internal/normalize"
	"github.com/nntexpressinc/safetybot/internal/report"
	"github.com/nntexpressinc/safetybot/internal/scheduler"
	"github.com/nntexpressinc/safetybot/internal/source"
	"github.com/nntexpressinc/safetybot/internal/store"
	"github.com/nntexpressinc/safetybot/internal/telegram"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc := time.Local
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.Error("invalid TIMEZONE", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable state: cursors in Redis, partitions on disk.
	redisStore, err := store.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisStore.Close()
	logger.Info("connected to redis")

	cursors := store.NewCursorStore(redisStore, logger)

	archive, err := store.NewArchive(cfg.ArchiveDir, logger)
	if err != nil {
		logger.Error("failed to open archive", "error", err)
		os.Exit(1)
	}

	channel, err := telegram.NewChannel(cfg.TelegramToken, cfg.TelegramChatID, logger)
	if err != nil {
		logger.Error("failed to connect to telegram", "error", err)
		os.Exit(1)
	}
	if err := channel.Healthy(ctx); err != nil {
		logger.Error("telegram connection test failed", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to telegram")

	normalizer, err := normalize.NewNormalizer(cfg.Timezone, logger)
	if err != nil {
		logger.Error("failed to build normalizer", "error", err)
		os.Exit(1)
	}

	client := source.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.PerPage, cfg.MaxPages, logger)
	cycle := ingest.NewCycle(client, normalizer, cursors, archive, channel, logger)

	builder, err := report.NewBuilder(archive, cfg.ReportDir, logger)
	if err != nil {
		logger.Error("failed to open report dir", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(cycle, builder, channel, cfg.CheckInterval, cfg.DailyReportTime, loc, logger)
	go sched.Run(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      api.NewRouter(sched, loc),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("command surface listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("stopped")
}
