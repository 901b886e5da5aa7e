// Package analytics serves ledger analytics from an immutable in-memory
// snapshot, fronted by a versioned Redis cache. Snapshots are swapped
// atomically on reload and never mutated in place.
package analytics

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

// SnapshotLoader builds a fresh ledger snapshot from the backing store.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (*ledger.Ledger, error)
}

// Service coordinates analytics query execution with the snapshot holder and
// the cache layer.
type Service struct {
	loader   SnapshotLoader
	cache    *Cache
	logger   *slog.Logger
	snapshot atomic.Pointer[ledger.Ledger]
}

// NewService wires a SnapshotLoader with a Cache helper. The service starts
// with an empty snapshot until the first Reload.
func NewService(loader SnapshotLoader, cache *Cache, logger *slog.Logger) *Service {
	svc := &Service{loader: loader, cache: cache, logger: logger}
	empty, _ := ledger.New(nil, nil, nil)
	svc.snapshot.Store(empty)
	return svc
}

// Snapshot returns the current immutable ledger snapshot.
func (s *Service) Snapshot() *ledger.Ledger {
	return s.snapshot.Load()
}

// SetSnapshot swaps in a prebuilt snapshot. Used when the caller already
// holds cleaned records, e.g. right after an ingest run.
func (s *Service) SetSnapshot(ctx context.Context, snap *ledger.Ledger) error {
	s.snapshot.Store(snap)
	return s.cache.Bump(ctx)
}

// Reload rebuilds the snapshot from the store, swaps it in and invalidates
// cached query results.
func (s *Service) Reload(ctx context.Context) error {
	started := time.Now()
	snap, err := s.loader.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	s.snapshot.Store(snap)
	if err := s.cache.Bump(ctx); err != nil {
		return err
	}
	s.logger.Info("ledger snapshot reloaded", slog.Duration("took", time.Since(started)))
	return nil
}

// resolveAsOf substitutes the latest event date for a zero as-of so callers
// get the view of the data they actually have rather than wall-clock now.
func (s *Service) resolveAsOf(asOf time.Time) time.Time {
	if !asOf.IsZero() {
		return asOf
	}
	if latest, ok := s.Snapshot().LatestEventDate(); ok {
		return latest
	}
	return asOf
}

// GetInventoryValue returns the category-level valuation of on-hand stock.
// A zero cutoff defers to the ledger's inception date.
func (s *Service) GetInventoryValue(ctx context.Context, cutoff time.Time) (ledger.Valuation, error) {
	key, err := s.cache.BuildKey(ctx, keyValuation(cutoff))
	if err != nil {
		return ledger.Valuation{}, err
	}
	var out ledger.Valuation
	err = s.cache.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
		return s.Snapshot().InventoryValue(cutoff), nil
	})
	return out, err
}

// GetStockAge returns the FIFO age attribution of on-hand stock. A zero
// as-of resolves to the latest event date in the snapshot.
func (s *Service) GetStockAge(ctx context.Context, asOf time.Time) (ledger.StockAge, error) {
	asOf = s.resolveAsOf(asOf)
	key, err := s.cache.BuildKey(ctx, keyStockAge(asOf))
	if err != nil {
		return ledger.StockAge{}, err
	}
	var out ledger.StockAge
	err = s.cache.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
		return s.Snapshot().FIFOStockAge(asOf), nil
	})
	return out, err
}

// GetProfitability returns revenue, standard-cost COGS, gross profit, PPV and
// cash outflow over the given window. Zero bounds leave the window open.
func (s *Service) GetProfitability(ctx context.Context, win ledger.Window) (ledger.Profitability, error) {
	key, err := s.cache.BuildKey(ctx, keyProfit(win.From, win.To))
	if err != nil {
		return ledger.Profitability{}, err
	}
	var out ledger.Profitability
	err = s.cache.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
		return s.Snapshot().Profitability(win), nil
	})
	return out, err
}

// GetRollingRevenue returns inclusive trailing-window revenue totals ending
// at end. A zero end resolves to the latest event date; empty windows use
// the defaults.
func (s *Service) GetRollingRevenue(ctx context.Context, end time.Time, windows []int) ([]ledger.WindowRevenue, error) {
	end = s.resolveAsOf(end)
	if len(windows) == 0 {
		windows = ledger.DefaultTrendWindows
	}
	key, err := s.cache.BuildKey(ctx, keyRollingRevenue(end, windows))
	if err != nil {
		return nil, err
	}
	var out []ledger.WindowRevenue
	err = s.cache.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
		return s.Snapshot().RollingRevenue(end, windows), nil
	})
	return out, err
}

// GetRevenueTrend returns the zero-filled month-end revenue series.
func (s *Service) GetRevenueTrend(ctx context.Context) ([]ledger.TrendPoint, error) {
	key, err := s.cache.BuildKey(ctx, keyTrend("revenue"))
	if err != nil {
		return nil, err
	}
	var out []ledger.TrendPoint
	err = s.cache.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
		return s.Snapshot().MonthlyRevenue(), nil
	})
	return out, err
}

// GetCashOutflowTrend returns the zero-filled month-end procurement cash
// outflow series, priced at actual receipt cost.
func (s *Service) GetCashOutflowTrend(ctx context.Context) ([]ledger.TrendPoint, error) {
	key, err := s.cache.BuildKey(ctx, keyTrend("cash_outflow"))
	if err != nil {
		return nil, err
	}
	var out []ledger.TrendPoint
	err = s.cache.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
		return s.Snapshot().MonthlyCashOutflow(), nil
	})
	return out, err
}

// GetProductAges returns per-product catalog ages sorted oldest first. A zero
// as-of resolves to the latest event date.
func (s *Service) GetProductAges(ctx context.Context, asOf time.Time) (ledger.ProductAgeReport, error) {
	asOf = s.resolveAsOf(asOf)
	key, err := s.cache.BuildKey(ctx, keyProductAge(asOf))
	if err != nil {
		return ledger.ProductAgeReport{}, err
	}
	var out ledger.ProductAgeReport
	err = s.cache.FetchJSON(ctx, key, &out, func(context.Context) (interface{}, error) {
		return s.Snapshot().ProductAges(asOf), nil
	})
	return out, err
}

// GetNetCreditPosition always fails: the ledger records no supplier payment
// or customer collection events, so the metric cannot be derived.
func (s *Service) GetNetCreditPosition() (float64, error) {
	return s.Snapshot().NetCreditPosition()
}
