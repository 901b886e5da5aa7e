// Package ingest cleans and normalizes raw CSV exports into ledger records.
// Malformed or unreferenced rows are quarantined with a reason instead of
// reaching the analytics engine, which only validates referential integrity.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

// columnAliases maps legacy export headers onto canonical column names. The
// raw feeds come from a POS system that renames columns between versions.
var columnAliases = map[string]string{
	"PTC":             "sku_id",
	"dot":             "date",
	"Qty":             "quantity",
	"Rate":            "sale_price",
	"SalesPrice2":     "sale_price",
	"InwardRate":      "cost_price",
	"lastInvoiceRate": "cost_price",
	"PrintName":       "product_name",
	"vendorCode_":     "supplier_id",
	"Category":        "category",
	"GroupName":       "sub_category",
	"BrandName":       "brand",
}

// dateLayouts are tried in order when parsing event dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
}

type productRow struct {
	SKU          string  `validate:"required"`
	Name         string  `validate:"required"`
	Category     string  `validate:"required"`
	SubCategory  string  `validate:"required"`
	Brand        string  `validate:"required"`
	CostPrice    float64 `validate:"gte=0"`
	SellingPrice float64 `validate:"gte=0"`
}

type receiptRow struct {
	SKU       string    `validate:"required"`
	Date      time.Time `validate:"required"`
	Quantity  float64   `validate:"gt=0"`
	CostPrice float64   `validate:"gte=0"`
	Supplier  string    `validate:"required"`
}

type saleRow struct {
	SKU       string    `validate:"required"`
	Date      time.Time `validate:"required"`
	Quantity  float64   `validate:"gt=0"`
	SalePrice float64   `validate:"gte=0"`
}

// Reader parses one raw CSV stream into normalized records plus quarantined rows.
type Reader struct {
	validate *validator.Validate
}

// NewReader constructs a Reader with struct validation enabled.
func NewReader() *Reader {
	return &Reader{validate: validator.New()}
}

type table struct {
	header map[string]int
	rows   [][]string
}

func (t *table) field(row []string, name string) string {
	idx, ok := t.header[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func readTable(r io.Reader, required []string, source string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ingest: read %s: %w", source, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ingest: %s: empty file", source)
	}

	header := make(map[string]int, len(records[0]))
	for i, raw := range records[0] {
		name := strings.TrimSpace(raw)
		if canonical, ok := columnAliases[name]; ok {
			name = canonical
		}
		header[name] = i
	}
	for _, col := range required {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("ingest: %s: missing required column %q", source, col)
		}
	}
	return &table{header: header, rows: records[1:]}, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// Products parses the product master feed. Rows failing validation are
// quarantined, never silently dropped.
func (rd *Reader) Products(r io.Reader, source string) ([]ledger.Product, []QuarantinedRow, error) {
	tbl, err := readTable(r, []string{"sku_id", "product_name"}, source)
	if err != nil {
		return nil, nil, err
	}

	var products []ledger.Product
	var quarantined []QuarantinedRow
	for i, raw := range tbl.rows {
		row := productRow{
			SKU:         tbl.field(raw, "sku_id"),
			Name:        tbl.field(raw, "product_name"),
			Category:    tbl.field(raw, "category"),
			SubCategory: tbl.field(raw, "sub_category"),
			Brand:       tbl.field(raw, "brand"),
		}
		// Prices default to zero when absent or unparseable, matching the
		// loader the POS feeds were built for.
		row.CostPrice, _ = parseFloat(tbl.field(raw, "cost_price"))
		row.SellingPrice, _ = parseFloat(tbl.field(raw, "sale_price"))

		if err := rd.validate.Struct(row); err != nil {
			quarantined = append(quarantined, newQuarantinedRow(source, i+2, raw, validationReason(err)))
			continue
		}
		products = append(products, ledger.Product{
			SKU:          row.SKU,
			Name:         row.Name,
			Category:     row.Category,
			SubCategory:  row.SubCategory,
			Brand:        row.Brand,
			StandardCost: row.CostPrice,
			SellingPrice: row.SellingPrice,
		})
	}
	return products, quarantined, nil
}

// Receipts parses the stock receipt feed. Rows referencing a SKU outside the
// known set are quarantined so ledger construction cannot fail on them.
func (rd *Reader) Receipts(r io.Reader, source string, knownSKUs map[string]bool) ([]ledger.Receipt, []QuarantinedRow, error) {
	tbl, err := readTable(r, []string{"sku_id", "cost_price"}, source)
	if err != nil {
		return nil, nil, err
	}

	var receipts []ledger.Receipt
	var quarantined []QuarantinedRow
	for i, raw := range tbl.rows {
		row := receiptRow{
			SKU:      tbl.field(raw, "sku_id"),
			Supplier: tbl.field(raw, "supplier_id"),
		}
		var parseErr error
		if row.Date, parseErr = parseDate(tbl.field(raw, "date")); parseErr == nil {
			if row.Quantity, parseErr = parseFloat(tbl.field(raw, "quantity")); parseErr == nil {
				row.CostPrice, parseErr = parseFloat(tbl.field(raw, "cost_price"))
			}
		}
		if parseErr != nil {
			quarantined = append(quarantined, newQuarantinedRow(source, i+2, raw, parseErr.Error()))
			continue
		}
		if err := rd.validate.Struct(row); err != nil {
			quarantined = append(quarantined, newQuarantinedRow(source, i+2, raw, validationReason(err)))
			continue
		}
		if !knownSKUs[row.SKU] {
			quarantined = append(quarantined, newQuarantinedRow(source, i+2, raw, "unknown sku (not in product master)"))
			continue
		}
		receipts = append(receipts, ledger.Receipt{
			SKU:         row.SKU,
			ReceiptDate: row.Date,
			Quantity:    row.Quantity,
			UnitCost:    row.CostPrice,
			SupplierID:  row.Supplier,
		})
	}
	return receipts, quarantined, nil
}

// Sales parses the sales transaction feed with the same quarantine policy as
// Receipts.
func (rd *Reader) Sales(r io.Reader, source string, knownSKUs map[string]bool) ([]ledger.Sale, []QuarantinedRow, error) {
	tbl, err := readTable(r, []string{"sku_id", "sale_price"}, source)
	if err != nil {
		return nil, nil, err
	}

	var sales []ledger.Sale
	var quarantined []QuarantinedRow
	for i, raw := range tbl.rows {
		row := saleRow{SKU: tbl.field(raw, "sku_id")}
		var parseErr error
		if row.Date, parseErr = parseDate(tbl.field(raw, "date")); parseErr == nil {
			if row.Quantity, parseErr = parseFloat(tbl.field(raw, "quantity")); parseErr == nil {
				row.SalePrice, parseErr = parseFloat(tbl.field(raw, "sale_price"))
			}
		}
		if parseErr != nil {
			quarantined = append(quarantined, newQuarantinedRow(source, i+2, raw, parseErr.Error()))
			continue
		}
		if err := rd.validate.Struct(row); err != nil {
			quarantined = append(quarantined, newQuarantinedRow(source, i+2, raw, validationReason(err)))
			continue
		}
		if !knownSKUs[row.SKU] {
			quarantined = append(quarantined, newQuarantinedRow(source, i+2, raw, "unknown sku (not in product master)"))
			continue
		}
		sales = append(sales, ledger.Sale{
			SKU:             row.SKU,
			TransactionDate: row.Date,
			Quantity:        row.Quantity,
			SalePrice:       row.SalePrice,
		})
	}
	return sales, quarantined, nil
}

func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s fails %q", fe.Field(), fe.Tag()))
		}
		return strings.Join(fields, "; ")
	}
	return err.Error()
}
