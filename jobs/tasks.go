package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDatasetRefresh re-fetches the dashboard dataset into the shared cache.
	TaskDatasetRefresh = "dataset:refresh"
)

// DatasetRefreshPayload configures a refresh run.
type DatasetRefreshPayload struct {
	// Reason is logged with the run, e.g. "cron" or "cli".
	Reason string `json:"reason,omitempty"`
	// Persist stores the fetched bytes as a Postgres snapshot as well.
	Persist bool `json:"persist,omitempty"`
}

// NewDatasetRefreshTask constructs an Asynq task for TaskDatasetRefresh.
func NewDatasetRefreshTask(payload DatasetRefreshPayload) (*asynq.Task, error) {
	if payload.Reason == "" {
		payload.Reason = "manual"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDatasetRefresh, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
