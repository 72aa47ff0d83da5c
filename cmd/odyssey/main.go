package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-pulse/internal/analytics"
	"github.com/odyssey-erp/odyssey-pulse/internal/analytics/export"
	analytichttp "github.com/odyssey-erp/odyssey-pulse/internal/analytics/http"
	"github.com/odyssey-erp/odyssey-pulse/internal/analytics/ui"
	"github.com/odyssey-erp/odyssey-pulse/internal/app"
	"github.com/odyssey-erp/odyssey-pulse/internal/dashboard"
	"github.com/odyssey-erp/odyssey-pulse/internal/observability"
	"github.com/odyssey-erp/odyssey-pulse/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pulse/internal/view"
	"github.com/odyssey-erp/odyssey-pulse/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	// Without Redis the refresh counter stays local to this process.
	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, refresh counter kept in memory", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	generator := analytics.NewGenerator(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())))
	channel := analytics.NewSimulatedChannel(generator, cfg.ChannelOptions())

	board, err := dashboard.NewBoard(channel, dashboard.DefaultWidgets(), dashboard.Options{
		Range:       cfg.DashboardRange,
		Category:    cfg.DashboardCategory,
		Logger:      logger,
		Observer:    metrics.Widgets(),
		Broadcaster: dashboard.NewBroadcaster(redisClient, cfg.RefreshChannel),
	})
	if err != nil {
		logger.Error("init dashboard", slog.Any("error", err))
		os.Exit(1)
	}
	defer board.Close()
	if err := board.Start(ctx); err != nil {
		logger.Error("start dashboard", slog.Any("error", err))
		os.Exit(1)
	}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	var pdf analytichttp.PDFService
	if cfg.GotenbergURL != "" {
		pdf = &export.PDFExporter{Endpoint: cfg.GotenbergURL, Client: &http.Client{Timeout: 30 * time.Second}}
	}
	analyticsHandler := analytichttp.NewHandler(logger, board, templates, ui.DefaultRenderers(), pdf)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AnalyticsHandler: analyticsHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
