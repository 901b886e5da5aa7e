package analytics

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

type fakeLoader struct {
	snapshot *ledger.Ledger
	err      error
	calls    int
}

func (f *fakeLoader) LoadSnapshot(ctx context.Context) (*ledger.Ledger, error) {
	f.calls++
	return f.snapshot, f.err
}

func testLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap, err := ledger.New(
		[]ledger.Product{{SKU: "A", Name: "Widget", Category: "Tools", StandardCost: 10, SellingPrice: 15}},
		[]ledger.Receipt{{SKU: "A", ReceiptDate: base, Quantity: 10, UnitCost: 9, SupplierID: "SUP-1"}},
		[]ledger.Sale{{SKU: "A", TransactionDate: base.AddDate(0, 0, 5), Quantity: 4, SalePrice: 15}},
	)
	require.NoError(t, err)
	return snap
}

func newTestService(t *testing.T, loader SnapshotLoader) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(loader, cache, slog.New(slog.DiscardHandler))
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestReloadSwapsSnapshot(t *testing.T) {
	loader := &fakeLoader{snapshot: testLedger(t)}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()

	ctx := context.Background()
	val, err := svc.GetInventoryValue(ctx, time.Time{})
	require.NoError(t, err)
	require.Zero(t, val.TotalQuantity, "expected empty snapshot before reload")

	require.NoError(t, svc.Reload(ctx))
	require.Equal(t, 1, loader.calls)

	val, err = svc.GetInventoryValue(ctx, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 6, val.TotalQuantity, 1e-9)
	require.InDelta(t, 60, val.TotalValue, 1e-9)
}

func TestReloadPropagatesLoaderError(t *testing.T) {
	loader := &fakeLoader{err: errors.New("store down")}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()

	require.Error(t, svc.Reload(context.Background()))
}

func TestGetInventoryValueCachesUntilBump(t *testing.T) {
	loader := &fakeLoader{snapshot: testLedger(t)}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.Reload(ctx))
	val, err := svc.GetInventoryValue(ctx, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 60, val.TotalValue, 1e-9)

	// Swap the snapshot behind the cache's back. The cached result must
	// survive until the version is bumped.
	empty, _ := ledger.New(nil, nil, nil)
	svc.snapshot.Store(empty)

	val, err = svc.GetInventoryValue(ctx, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 60, val.TotalValue, 1e-9)

	require.NoError(t, svc.cache.Bump(ctx))
	val, err = svc.GetInventoryValue(ctx, time.Time{})
	require.NoError(t, err)
	require.Zero(t, val.TotalValue)
}

func TestSetSnapshotSwapsAndInvalidates(t *testing.T) {
	loader := &fakeLoader{snapshot: testLedger(t)}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.Reload(ctx))
	val, err := svc.GetInventoryValue(ctx, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 60, val.TotalValue, 1e-9)

	empty, err := ledger.New(nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, svc.SetSnapshot(ctx, empty))
	require.Same(t, empty, svc.Snapshot())

	// The bump must make cached results recompute against the new snapshot.
	val, err = svc.GetInventoryValue(ctx, time.Time{})
	require.NoError(t, err)
	require.Zero(t, val.TotalValue)
	require.Equal(t, 1, loader.calls, "SetSnapshot must not hit the store")
}

func TestGetStockAgeDefaultsAsOfToLatestEvent(t *testing.T) {
	loader := &fakeLoader{snapshot: testLedger(t)}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.Reload(ctx))

	age, err := svc.GetStockAge(ctx, time.Time{})
	require.NoError(t, err)
	wantAsOf := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	require.True(t, age.AsOf.Equal(wantAsOf), "expected as-of %s, got %s", wantAsOf, age.AsOf)
	require.InDelta(t, 6, age.TotalOnHand, 1e-9)
}

func TestGetProfitability(t *testing.T) {
	loader := &fakeLoader{snapshot: testLedger(t)}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.Reload(ctx))

	prof, err := svc.GetProfitability(ctx, ledger.Window{})
	require.NoError(t, err)
	require.InDelta(t, 60, prof.Revenue, 1e-9)
	require.InDelta(t, 40, prof.COGS, 1e-9)
	require.InDelta(t, 20, prof.GrossProfit, 1e-9)
	require.InDelta(t, 10, prof.PPV, 1e-9)
	require.InDelta(t, 90, prof.CashOutflow, 1e-9)
}

func TestGetRollingRevenueDefaultsWindows(t *testing.T) {
	loader := &fakeLoader{snapshot: testLedger(t)}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.Reload(ctx))

	windows, err := svc.GetRollingRevenue(ctx, time.Time{}, nil)
	require.NoError(t, err)
	require.Len(t, windows, len(ledger.DefaultTrendWindows))
	require.Equal(t, 30, windows[0].Days)
	require.InDelta(t, 60, windows[0].Revenue, 1e-9)
}

func TestGetOverviewComposesCards(t *testing.T) {
	loader := &fakeLoader{snapshot: testLedger(t)}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.Reload(ctx))

	overview, err := svc.GetOverview(ctx, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 60, overview.Valuation.TotalValue, 1e-9)
	require.InDelta(t, 20, overview.Profitability.GrossProfit, 1e-9)
	require.InDelta(t, 6, overview.StockAge.TotalOnHand, 1e-9)
	require.NotEmpty(t, overview.RollingRevenue)
}

func TestNetCreditPositionUnsupported(t *testing.T) {
	loader := &fakeLoader{snapshot: testLedger(t)}
	svc, cleanup := newTestService(t, loader)
	defer cleanup()

	_, err := svc.GetNetCreditPosition()
	require.ErrorIs(t, err, ledger.ErrUnsupportedMetric)
}

func TestCacheNilClientPassThrough(t *testing.T) {
	loader := &fakeLoader{snapshot: testLedger(t)}
	svc := NewService(loader, nil, slog.New(slog.DiscardHandler))

	ctx := context.Background()
	require.NoError(t, svc.Reload(ctx))
	val, err := svc.GetInventoryValue(ctx, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 60, val.TotalValue, 1e-9)
}
