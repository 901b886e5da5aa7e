package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

type fakeStore struct {
	products []ledger.Product
	receipts []ledger.Receipt
	sales    []ledger.Sale
	truncs   int
}

func (f *fakeStore) EnsureSchema(ctx context.Context) error { return nil }

func (f *fakeStore) UpsertProducts(ctx context.Context, products []ledger.Product) error {
	f.products = products
	return nil
}

func (f *fakeStore) TruncateTransactions(ctx context.Context) error {
	f.truncs++
	return nil
}

func (f *fakeStore) InsertReceipts(ctx context.Context, receipts []ledger.Receipt) (int64, error) {
	f.receipts = receipts
	return int64(len(receipts)), nil
}

func (f *fakeStore) InsertSales(ctx context.Context, sales []ledger.Sale) (int64, error) {
	f.sales = sales
	return int64(len(sales)), nil
}

func writeRawFeeds(t *testing.T, dir string) {
	t.Helper()
	feeds := map[string]string{
		ProductMasterFile: strings.Join([]string{
			"sku_id,product_name,category,sub_category,brand,cost_price,sale_price",
			"SKU-1,Basmati Rice 5kg,Grocery,Rice,Daymart,420.50,499",
		}, "\n"),
		StockReceiptsFile: strings.Join([]string{
			"date,sku_id,quantity,supplier_id,cost_price",
			"2024-03-01,SKU-1,10,SUP-9,400",
		}, "\n"),
		SalesTransactionsFile: strings.Join([]string{
			"date,sku_id,quantity,sale_price",
			"2024-03-05,SKU-1,4,499",
		}, "\n"),
	}
	for name, body := range feeds {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestLoaderRunBuildsLedgerAndPersists(t *testing.T) {
	rawDir := t.TempDir()
	writeRawFeeds(t, rawDir)

	store := &fakeStore{}
	loader := NewLoader(Options{
		RawDir:        rawDir,
		QuarantineDir: t.TempDir(),
	}, store, slog.New(slog.DiscardHandler))

	snap, err := loader.Run(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, snap)

	require.Len(t, store.products, 1)
	require.Equal(t, "SKU-1", store.products[0].SKU)
	require.Equal(t, 1, store.truncs)
	require.Len(t, store.receipts, 1)
	require.Len(t, store.sales, 1)
	require.Equal(t, store.products, snap.Products())
}

func TestLoaderRunOverridesRawDir(t *testing.T) {
	override := t.TempDir()
	writeRawFeeds(t, override)

	store := &fakeStore{}
	loader := NewLoader(Options{
		RawDir:        filepath.Join(t.TempDir(), "does-not-exist"),
		QuarantineDir: t.TempDir(),
	}, store, slog.New(slog.DiscardHandler))

	_, err := loader.Run(context.Background(), override)
	require.NoError(t, err)
	require.Len(t, store.receipts, 1)

	// Without the override the configured directory is used and the run fails.
	_, err = loader.Run(context.Background(), "")
	require.Error(t, err)
}
