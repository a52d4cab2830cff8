package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clarion-hms/clarion/internal/app"
	"github.com/clarion-hms/clarion/internal/inventory"
	"github.com/clarion-hms/clarion/internal/platform/cache"
	"github.com/clarion-hms/clarion/internal/platform/db"
	"github.com/clarion-hms/clarion/internal/reports"
	"github.com/clarion-hms/clarion/jobs"
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

	// "worker enqueue <task>" queues a one-off run instead of starting the
	// scheduler, useful for backfills and smoke checks.
	if len(os.Args) > 2 && os.Args[1] == "enqueue" {
		enqueueOnce(ctx, cfg, logger, os.Args[2])
		return
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	inventoryService := inventory.NewService(inventory.NewRepository(pool), logger)
	reportsService := reports.NewService(reports.NewRepository(pool), inventoryService, redisClient, cfg.StatsCacheTTL, logger)

	scanJob := jobs.NewLowStockScanner(inventoryService, logger)
	warmupJob := jobs.NewStatsWarmer(reportsService, logger)

	scanTask, err := jobs.NewLowStockScanTask(time.Now().UTC())
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewStatsWarmupTask(time.Now().UTC())
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: scanJob.Handle},
			{Type: jobs.TaskStatsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/30 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
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

func enqueueOnce(ctx context.Context, cfg *app.Config, logger *slog.Logger, task string) {
	client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	var (
		info *asynq.TaskInfo
		err  error
	)
	switch task {
	case "lowstock":
		info, err = client.EnqueueLowStockScan(ctx)
	case "snapshot":
		info, err = client.EnqueueStatsWarmup(ctx)
	default:
		logger.Error("unknown task", slog.String("task", task))
		os.Exit(2)
	}
	if err != nil {
		logger.Error("enqueue", slog.String("task", task), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("task enqueued", slog.String("task", task), slog.String("id", info.ID), slog.String("queue", info.Queue))
}
