// Package export serialises analytics results for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

var printer = message.NewPrinter(language.English)

// formatFloat renders monetary and quantity values with thousands grouping,
// two decimals.
func formatFloat(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// WriteValuationCSV serialises a category valuation, one product line per
// row, with a trailing totals row.
func WriteValuationCSV(w io.Writer, valuation ledger.Valuation) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Category", "SKU", "Product", "Quantity", "Unit Cost", "Value"}); err != nil {
		return err
	}
	for _, cat := range valuation.ByCategory {
		for _, line := range cat.Products {
			record := []string{
				cat.Category,
				line.SKU,
				line.Name,
				formatFloat(line.Quantity),
				formatFloat(line.UnitCost),
				formatFloat(line.Value),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	if err := writer.Write([]string{"TOTAL", "", "", formatFloat(valuation.TotalQuantity), "", formatFloat(valuation.TotalValue)}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteProductAgeCSV serialises the catalog age report, oldest products first.
func WriteProductAgeCSV(w io.Writer, report ledger.ProductAgeReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"SKU", "Product", "Category", "First Receipt", "Age Days"}); err != nil {
		return err
	}
	for _, p := range report.ProductsByAge {
		record := []string{
			p.SKU,
			p.Name,
			p.Category,
			p.FirstReceiptDate.Format("2006-01-02"),
			strconv.Itoa(p.AgeDays),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTrendCSV emits one monthly series as CSV under a series label.
func WriteTrendCSV(w io.Writer, label string, points []ledger.TrendPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Month End", label}); err != nil {
		return err
	}
	for _, point := range points {
		record := []string{point.PeriodEnd.Format("2006-01-02"), formatFloat(point.Value)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteStockAgeCSV serialises per-SKU FIFO stock ages.
func WriteStockAgeCSV(w io.Writer, age ledger.StockAge) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"SKU", "On Hand", "Average Age Days"}); err != nil {
		return err
	}
	for _, sku := range age.BySKU {
		record := []string{sku.SKU, formatFloat(sku.OnHand), formatFloat(sku.AverageAgeDays)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
