package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	"github.com/apex-analytics/apex-dashboard/internal/app"
	jobmetrics "github.com/apex-analytics/apex-dashboard/internal/jobs"
	"github.com/apex-analytics/apex-dashboard/internal/platform/cache"
	"github.com/apex-analytics/apex-dashboard/internal/platform/db"
	"github.com/apex-analytics/apex-dashboard/jobs"
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
	if !cfg.CacheEnabled() {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	storage, err := app.OpenWorkerStorage(ctx, cfg, func(ctx context.Context, dsn string) (app.SnapshotDB, error) {
		pool, err := db.New(ctx, dsn, 4)
		if err != nil {
			return nil, err
		}
		return pool, nil
	}, logger)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer storage.Close()

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

	source, err := app.NewDatasetSource(cfg, storage.Querier)
	if err != nil {
		logger.Error("dataset source", slog.Any("error", err))
		os.Exit(1)
	}

	datasetCache := analytics.NewCache(redisClient, cfg.CacheTTL)
	refreshJob := jobs.NewDatasetRefreshJob(source, datasetCache, storage.Store, logger, jobmetrics.NewMetrics(nil))
	refreshJob.Timeout = cfg.DatasetFetchTimeout

	refreshTask, err := jobs.NewDatasetRefreshTask(jobs.DatasetRefreshPayload{Reason: "cron"})
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	var cron []jobs.CronRegistration
	if cfg.RefreshCron != "" {
		cron = append(cron, jobs.CronRegistration{Spec: cfg.RefreshCron, Task: refreshTask, Options: []asynq.Option{asynq.Unique(time.Minute)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDatasetRefresh, Handler: refreshJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
