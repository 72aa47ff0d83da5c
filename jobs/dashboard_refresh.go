package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-pulse/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Bumper increments the shared refresh counter.
type Bumper interface {
	Bump(ctx context.Context) (int64, error)
}

// DashboardRefreshJob advances the dashboard-wide refresh counter so every
// replica refetches all widgets.
type DashboardRefreshJob struct {
	Bumper  Bumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDashboardRefreshJob wires dependencies for the refresh handler.
func NewDashboardRefreshJob(bumper Bumper, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardRefreshJob {
	return &DashboardRefreshJob{
		Bumper:  bumper,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskDashboardRefresh tasks.
func (j *DashboardRefreshJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Bumper == nil {
		return errors.New("dashboard refresh: handler not configured")
	}
	var payload DashboardRefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Reason == "" {
		payload.Reason = "schedule"
	}

	tracker := j.metrics().Track(JobDashboardRefresh)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := j.now()
	n, err := j.Bumper.Bump(ctx)
	if err != nil {
		logger.Error("bump refresh counter", slog.Any("error", err))
		return err
	}
	logger.Info("dashboard refresh broadcast", slog.Int64("refresh", n), slog.Duration("duration", j.now().Sub(start)))
	return nil
}

func (j *DashboardRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", JobDashboardRefresh))
	}
	return slog.Default().With(slog.String("job", JobDashboardRefresh))
}

func (j *DashboardRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardRefreshJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
