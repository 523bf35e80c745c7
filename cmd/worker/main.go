package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/deristok/deristok/internal/app"
	"github.com/deristok/deristok/internal/platform/cache"
	"github.com/deristok/deristok/internal/platform/db"
	"github.com/deristok/deristok/internal/reports"
	"github.com/deristok/deristok/internal/shared"
	"github.com/deristok/deristok/jobs"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.Connect(ctx, cfg.PGDSN, db.ConnectOptions{
		Attempts: cfg.DBConnectAttempts,
		Backoff:  cfg.DBConnectBackoff,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(logger, reportsRepo, redisClient, cfg.ReportCacheTTL)

	handlers := jobs.NewHandlers(logger, dbpool, idempotencyStore, reportsService)
	mux := asynq.NewServeMux()
	handlers.Register(mux)

	server := jobs.NewServer(cfg.RedisAddr, logger)
	scheduler, err := jobs.NewScheduler(cfg.RedisAddr)
	if err != nil {
		logger.Error("build scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("scheduler stopped", slog.Any("error", err))
			stop()
		}
	}()
	go func() {
		logger.Info("starting worker")
		if err := server.Run(mux); err != nil {
			logger.Error("worker stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down worker")
	scheduler.Shutdown()
	server.Shutdown()
}
