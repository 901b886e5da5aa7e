package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/daymart-erp/daymart-analytics/internal/analytics"
	"github.com/daymart-erp/daymart-analytics/internal/app"
	"github.com/daymart-erp/daymart-analytics/internal/ingest"
	"github.com/daymart-erp/daymart-analytics/internal/observability"
	"github.com/daymart-erp/daymart-analytics/internal/platform/db"
	"github.com/daymart-erp/daymart-analytics/internal/store"
	"github.com/daymart-erp/daymart-analytics/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	repo := store.NewRepository(pool)
	cache := analytics.NewCache(redisClient, cfg.CacheTTL)
	service := analytics.NewService(repo, cache, logger)

	loader := ingest.NewLoader(ingest.Options{
		RawDir:        cfg.DataRawDir,
		CleanDir:      cfg.DataCleanDir,
		QuarantineDir: cfg.DataQuarantineDir,
	}, repo, logger)

	metrics := observability.NewMetrics()

	refreshTask, err := jobs.NewSnapshotRefreshTask(time.Now().UTC())
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSnapshotRefresh, Handler: jobs.NewSnapshotRefreshHandler(service, metrics, logger)},
			{Type: jobs.TaskIngestRun, Handler: jobs.NewIngestRunHandler(loader, service, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SnapshotRefreshCron, Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
