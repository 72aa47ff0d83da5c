package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pulse/internal/app"
	"github.com/odyssey-erp/odyssey-pulse/internal/dashboard"
	jobmetrics "github.com/odyssey-erp/odyssey-pulse/internal/jobs"
	"github.com/odyssey-erp/odyssey-pulse/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pulse/jobs"
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

	// "worker refresh" enqueues a one-off refresh and exits.
	if len(os.Args) > 1 && os.Args[1] == "refresh" {
		if err := enqueueRefresh(ctx, cfg, logger); err != nil {
			logger.Error("enqueue refresh", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	// The worker only makes sense against the shared counter.
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

	broadcaster := dashboard.NewBroadcaster(redisClient, cfg.RefreshChannel)
	refreshJob := jobs.NewDashboardRefreshJob(broadcaster, logger, jobmetrics.NewMetrics(nil))

	refreshTask, err := jobs.NewDashboardRefreshTask(jobs.DashboardRefreshPayload{Reason: "schedule"})
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDashboardRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.RefreshCron, Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3), asynq.Queue(jobs.QueueDefault)}},
		},
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

func enqueueRefresh(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()
	info, err := client.EnqueueDashboardRefresh(ctx, "manual")
	if err != nil {
		return err
	}
	logger.Info("refresh enqueued", slog.String("task_id", info.ID), slog.String("queue", info.Queue))
	return nil
}
