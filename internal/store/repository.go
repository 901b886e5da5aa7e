// Package store persists the product master and transaction ledgers in
// PostgreSQL and assembles immutable ledger snapshots from them.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

//go:embed schema.sql
var schemaDDL string

// ErrDuplicateSKU indicates a product master insert clashing with an existing row.
var ErrDuplicateSKU = errors.New("store: duplicate sku")

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema applies the embedded DDL. All statements are idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// UpsertProducts merges product master rows on sku_id.
func (r *Repository) UpsertProducts(ctx context.Context, products []ledger.Product) error {
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(`
			INSERT INTO product_master (sku_id, product_name, category, sub_category, brand, unit_cost_price, unit_selling_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (sku_id) DO UPDATE SET
				product_name = EXCLUDED.product_name,
				category = EXCLUDED.category,
				sub_category = EXCLUDED.sub_category,
				brand = EXCLUDED.brand,
				unit_cost_price = EXCLUDED.unit_cost_price,
				unit_selling_price = EXCLUDED.unit_selling_price,
				updated_at = now()`,
			p.SKU, p.Name, p.Category, p.SubCategory, p.Brand, p.StandardCost, p.SellingPrice)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("store: upsert products: %w", mapPgError(err))
	}
	return nil
}

// InsertReceipts bulk-loads stock receipt rows.
func (r *Repository) InsertReceipts(ctx context.Context, receipts []ledger.Receipt) (int64, error) {
	rows := make([][]any, 0, len(receipts))
	for _, rec := range receipts {
		rows = append(rows, []any{rec.ReceiptDate, rec.SKU, rec.Quantity, rec.SupplierID, rec.UnitCost})
	}
	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"stock_receipts"},
		[]string{"receipt_date", "sku_id", "quantity_received", "supplier_id", "unit_cost"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("store: insert receipts: %w", mapPgError(err))
	}
	return n, nil
}

// InsertSales bulk-loads sales transaction rows.
func (r *Repository) InsertSales(ctx context.Context, sales []ledger.Sale) (int64, error) {
	rows := make([][]any, 0, len(sales))
	for _, s := range sales {
		rows = append(rows, []any{s.TransactionDate, s.SKU, s.Quantity, s.SalePrice})
	}
	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"sales_transactions"},
		[]string{"transaction_date", "sku_id", "quantity_sold", "sale_price"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("store: insert sales: %w", mapPgError(err))
	}
	return n, nil
}

// TruncateTransactions clears both transaction tables ahead of a full
// reload. The product master is upserted in place and survives.
func (r *Repository) TruncateTransactions(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `TRUNCATE stock_receipts, sales_transactions RESTART IDENTITY`); err != nil {
		return fmt.Errorf("store: truncate transactions: %w", err)
	}
	return nil
}

// LoadSnapshot reads the three tables and builds an immutable ledger
// snapshot. Products are read in sku order so category rollups are stable
// across reloads.
func (r *Repository) LoadSnapshot(ctx context.Context) (*ledger.Ledger, error) {
	products, err := r.loadProducts(ctx)
	if err != nil {
		return nil, err
	}
	receipts, err := r.loadReceipts(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := r.loadSales(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := ledger.New(products, receipts, sales)
	if err != nil {
		return nil, fmt.Errorf("store: build snapshot: %w", err)
	}
	return snapshot, nil
}

func (r *Repository) loadProducts(ctx context.Context) ([]ledger.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sku_id, product_name, category, sub_category, brand, unit_cost_price, unit_selling_price
		FROM product_master
		ORDER BY sku_id`)
	if err != nil {
		return nil, fmt.Errorf("store: load products: %w", err)
	}
	defer rows.Close()

	var products []ledger.Product
	for rows.Next() {
		var p ledger.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Category, &p.SubCategory, &p.Brand, &p.StandardCost, &p.SellingPrice); err != nil {
			return nil, fmt.Errorf("store: scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) loadReceipts(ctx context.Context) ([]ledger.Receipt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sku_id, receipt_date, quantity_received, supplier_id, unit_cost
		FROM stock_receipts
		ORDER BY receipt_date, id`)
	if err != nil {
		return nil, fmt.Errorf("store: load receipts: %w", err)
	}
	defer rows.Close()

	var receipts []ledger.Receipt
	for rows.Next() {
		var rec ledger.Receipt
		if err := rows.Scan(&rec.SKU, &rec.ReceiptDate, &rec.Quantity, &rec.SupplierID, &rec.UnitCost); err != nil {
			return nil, fmt.Errorf("store: scan receipt: %w", err)
		}
		receipts = append(receipts, rec)
	}
	return receipts, rows.Err()
}

func (r *Repository) loadSales(ctx context.Context) ([]ledger.Sale, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sku_id, transaction_date, quantity_sold, sale_price
		FROM sales_transactions
		ORDER BY transaction_date, id`)
	if err != nil {
		return nil, fmt.Errorf("store: load sales: %w", err)
	}
	defer rows.Close()

	var sales []ledger.Sale
	for rows.Next() {
		var s ledger.Sale
		if err := rows.Scan(&s.SKU, &s.TransactionDate, &s.Quantity, &s.SalePrice); err != nil {
			return nil, fmt.Errorf("store: scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateSKU
	}
	return err
}
