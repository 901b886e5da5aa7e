// Command ingest runs the CSV clean-and-load pipeline once and exits. It is
// meant for operator-driven full reloads; scheduled runs go through the
// worker instead.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/daymart-erp/daymart-analytics/internal/app"
	"github.com/daymart-erp/daymart-analytics/internal/ingest"
	"github.com/daymart-erp/daymart-analytics/internal/platform/db"
	"github.com/daymart-erp/daymart-analytics/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	rawDir := flag.String("raw", cfg.DataRawDir, "directory holding the raw CSV feeds")
	cleanDir := flag.String("clean", cfg.DataCleanDir, "directory for the cleaned feeds")
	quarantineDir := flag.String("quarantine", cfg.DataQuarantineDir, "directory for quarantined rows")
	flag.Parse()

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	loader := ingest.NewLoader(ingest.Options{
		RawDir:        *rawDir,
		CleanDir:      *cleanDir,
		QuarantineDir: *quarantineDir,
	}, store.NewRepository(pool), logger)

	if _, err := loader.Run(ctx, ""); err != nil {
		logger.Error("ingest run", slog.Any("error", err))
		os.Exit(1)
	}
}
