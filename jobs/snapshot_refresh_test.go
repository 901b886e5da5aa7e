package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

type fakeReloader struct {
	calls int
	err   error
}

func (f *fakeReloader) Reload(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakeRecorder struct {
	jobs []string
	errs []error
}

func (f *fakeRecorder) RecordJob(job string, started time.Time, err error) {
	f.jobs = append(f.jobs, job)
	f.errs = append(f.errs, err)
}

type fakeRunner struct {
	calls   int
	rawDirs []string
	snap    *ledger.Ledger
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, rawDir string) (*ledger.Ledger, error) {
	f.calls++
	f.rawDirs = append(f.rawDirs, rawDir)
	return f.snap, f.err
}

type fakeSetter struct {
	snaps []*ledger.Ledger
	err   error
}

func (f *fakeSetter) SetSnapshot(ctx context.Context, snap *ledger.Ledger) error {
	f.snaps = append(f.snaps, snap)
	return f.err
}

func TestSnapshotRefreshHandler(t *testing.T) {
	reloader := &fakeReloader{}
	recorder := &fakeRecorder{}
	handler := NewSnapshotRefreshHandler(reloader, recorder, slog.New(slog.DiscardHandler))

	task, err := NewSnapshotRefreshTask(time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, 1, reloader.calls)
	require.Equal(t, []string{TaskSnapshotRefresh}, recorder.jobs)
}

func TestSnapshotRefreshHandlerPropagatesError(t *testing.T) {
	reloader := &fakeReloader{err: errors.New("store down")}
	handler := NewSnapshotRefreshHandler(reloader, nil, slog.New(slog.DiscardHandler))

	task, err := NewSnapshotRefreshTask(time.Now().UTC())
	require.NoError(t, err)
	require.Error(t, handler(context.Background(), task))
}

func TestSnapshotRefreshHandlerSkipsBadPayload(t *testing.T) {
	reloader := &fakeReloader{}
	handler := NewSnapshotRefreshHandler(reloader, nil, slog.New(slog.DiscardHandler))

	task := asynq.NewTask(TaskSnapshotRefresh, []byte("{not json"))
	err := handler(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Zero(t, reloader.calls)
}

func TestIngestRunHandlerSwapsLoadedSnapshot(t *testing.T) {
	snap, err := ledger.New(nil, nil, nil)
	require.NoError(t, err)
	runner := &fakeRunner{snap: snap}
	setter := &fakeSetter{}
	recorder := &fakeRecorder{}
	handler := NewIngestRunHandler(runner, setter, recorder, slog.New(slog.DiscardHandler))

	task, err := NewIngestRunTask("data/other-raw")
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))

	require.Equal(t, []string{"data/other-raw"}, runner.rawDirs)
	require.Len(t, setter.snaps, 1)
	require.Same(t, snap, setter.snaps[0])
	require.Equal(t, []string{TaskIngestRun}, recorder.jobs)
}

func TestIngestRunHandlerSkipsSwapOnLoadFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("bad feed")}
	setter := &fakeSetter{}
	handler := NewIngestRunHandler(runner, setter, nil, slog.New(slog.DiscardHandler))

	task, err := NewIngestRunTask("")
	require.NoError(t, err)
	require.Error(t, handler(context.Background(), task))
	require.Empty(t, setter.snaps)
}
