package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardRefresh bumps the shared dashboard refresh counter.
	TaskDashboardRefresh = "dashboard:refresh"
	// JobDashboardRefresh is the metrics label of the refresh job.
	JobDashboardRefresh = "dashboard_refresh"
)

// DashboardRefreshPayload describes why a refresh was requested.
type DashboardRefreshPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewDashboardRefreshTask constructs an Asynq task. Refreshes are cheap and
// idempotent in effect, so retries are capped low.
func NewDashboardRefreshTask(payload DashboardRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardRefresh, data, asynq.MaxRetry(2), asynq.Timeout(30*time.Second)), nil
}
