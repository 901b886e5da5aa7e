package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// SnapshotReloader is the slice of the analytics service the refresh job needs.
type SnapshotReloader interface {
	Reload(ctx context.Context) error
}

// JobRecorder observes job executions for metrics.
type JobRecorder interface {
	RecordJob(job string, started time.Time, err error)
}

// NewSnapshotRefreshHandler builds the handler for TaskSnapshotRefresh. The
// recorder may be nil.
func NewSnapshotRefreshHandler(reloader SnapshotReloader, recorder JobRecorder, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SnapshotRefreshPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		started := time.Now()
		err := reloader.Reload(ctx)
		if recorder != nil {
			recorder.RecordJob(TaskSnapshotRefresh, started, err)
		}
		if err != nil {
			logger.Error("snapshot refresh failed", slog.Any("error", err))
			return err
		}
		logger.Info("snapshot refreshed",
			slog.Time("scheduled_for", payload.ScheduledFor),
			slog.Duration("took", time.Since(started)))
		return nil
	}
}
