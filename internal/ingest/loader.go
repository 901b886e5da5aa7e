package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

// Store is the persistence surface the loader writes cleaned records to.
type Store interface {
	EnsureSchema(ctx context.Context) error
	UpsertProducts(ctx context.Context, products []ledger.Product) error
	TruncateTransactions(ctx context.Context) error
	InsertReceipts(ctx context.Context, receipts []ledger.Receipt) (int64, error)
	InsertSales(ctx context.Context, sales []ledger.Sale) (int64, error)
}

// Loader runs the clean-and-quarantine pipeline and replaces the persisted
// transaction ledgers with the cleaned feeds. Each run is a full reload: the
// raw exports are cumulative, so replace is the only way to stay consistent
// with them.
type Loader struct {
	opts   Options
	store  Store
	logger *slog.Logger
}

// NewLoader constructs a Loader.
func NewLoader(opts Options, store Store, logger *slog.Logger) *Loader {
	return &Loader{opts: opts, store: store, logger: logger}
}

// Run executes one ingest cycle end to end and returns the ledger built from
// the cleaned feeds, ready to be swapped in as the serving snapshot. A
// non-empty rawDir overrides the configured raw directory for this run only.
// The ledger is built before anything is persisted so referential errors
// abort the run without touching the database.
func (l *Loader) Run(ctx context.Context, rawDir string) (*ledger.Ledger, error) {
	opts := l.opts
	if rawDir != "" {
		opts.RawDir = rawDir
	}
	result, err := NewPipeline(opts, l.logger).Run()
	if err != nil {
		return nil, err
	}

	led, err := ledger.New(result.Products, result.Receipts, result.Sales)
	if err != nil {
		return nil, fmt.Errorf("ingest: validate cleaned feeds: %w", err)
	}

	if err := l.store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if err := l.store.UpsertProducts(ctx, led.Products()); err != nil {
		return nil, fmt.Errorf("ingest: load products: %w", err)
	}
	if err := l.store.TruncateTransactions(ctx); err != nil {
		return nil, err
	}
	receipts, err := l.store.InsertReceipts(ctx, result.Receipts)
	if err != nil {
		return nil, fmt.Errorf("ingest: load receipts: %w", err)
	}
	sales, err := l.store.InsertSales(ctx, result.Sales)
	if err != nil {
		return nil, fmt.Errorf("ingest: load sales: %w", err)
	}

	l.logger.Info("ingest load complete",
		slog.String("raw_dir", opts.RawDir),
		slog.Int("products", len(led.Products())),
		slog.Int64("receipts", receipts),
		slog.Int64("sales", sales),
		slog.Int("quarantined", result.Quarantined))
	return led, nil
}
