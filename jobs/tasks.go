// Package jobs hosts the asynchronous task definitions and the Asynq worker
// runtime for background snapshot maintenance.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSnapshotRefresh rebuilds the in-memory ledger snapshot from the store.
	TaskSnapshotRefresh = "snapshot:refresh"
	// TaskIngestRun executes the CSV clean-and-load pipeline.
	TaskIngestRun = "ingest:run"
)

// SnapshotRefreshPayload carries scheduling metadata for a refresh run.
type SnapshotRefreshPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSnapshotRefreshTask constructs an Asynq task for a snapshot refresh.
func NewSnapshotRefreshTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SnapshotRefreshPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotRefresh, body, asynq.Queue(QueueDefault)), nil
}

// IngestRunPayload names the raw data directory for one pipeline run.
type IngestRunPayload struct {
	RawDir string `json:"raw_dir"`
}

// NewIngestRunTask constructs an Asynq task for an ingest run.
func NewIngestRunTask(rawDir string) (*asynq.Task, error) {
	body, err := json.Marshal(IngestRunPayload{RawDir: rawDir})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIngestRun, body, asynq.Queue(QueueDefault)), nil
}
