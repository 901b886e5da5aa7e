package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

// IngestRunner executes one ingest cycle against rawDir (or the configured
// default when empty) and returns the ledger built from the cleaned feeds.
type IngestRunner interface {
	Run(ctx context.Context, rawDir string) (*ledger.Ledger, error)
}

// SnapshotSetter swaps a prebuilt ledger in as the serving snapshot.
type SnapshotSetter interface {
	SetSnapshot(ctx context.Context, snap *ledger.Ledger) error
}

// NewIngestRunHandler builds the handler for TaskIngestRun. The loaded ledger
// is swapped in directly rather than re-read from the store, so queries see
// the new data as soon as the load commits.
func NewIngestRunHandler(runner IngestRunner, setter SnapshotSetter, recorder JobRecorder, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload IngestRunPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		started := time.Now()
		snap, err := runner.Run(ctx, payload.RawDir)
		if err == nil {
			err = setter.SetSnapshot(ctx, snap)
		}
		if recorder != nil {
			recorder.RecordJob(TaskIngestRun, started, err)
		}
		if err != nil {
			logger.Error("ingest run failed", slog.Any("error", err))
			return err
		}
		logger.Info("ingest run complete", slog.Duration("took", time.Since(started)))
		return nil
	}
}
