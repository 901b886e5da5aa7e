package ingest

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

// Cleaned feeds use canonical headers regardless of what the raw export
// called its columns, so downstream consumers never see the alias zoo.

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteProductsCSV serialises cleaned product master rows.
func WriteProductsCSV(w io.Writer, products []ledger.Product) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"sku_id", "product_name", "category", "sub_category", "brand", "cost_price", "sale_price"}); err != nil {
		return err
	}
	for _, p := range products {
		record := []string{p.SKU, p.Name, p.Category, p.SubCategory, p.Brand, formatQty(p.StandardCost), formatQty(p.SellingPrice)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteReceiptsCSV serialises cleaned stock receipt rows.
func WriteReceiptsCSV(w io.Writer, receipts []ledger.Receipt) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"date", "sku_id", "quantity", "supplier_id", "cost_price"}); err != nil {
		return err
	}
	for _, r := range receipts {
		record := []string{r.ReceiptDate.Format("2006-01-02"), r.SKU, formatQty(r.Quantity), r.SupplierID, formatQty(r.UnitCost)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSalesCSV serialises cleaned sales transaction rows.
func WriteSalesCSV(w io.Writer, sales []ledger.Sale) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"date", "sku_id", "quantity", "sale_price"}); err != nil {
		return err
	}
	for _, s := range sales {
		record := []string{s.TransactionDate.Format("2006-01-02"), s.SKU, formatQty(s.Quantity), formatQty(s.SalePrice)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
