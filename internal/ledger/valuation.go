package ledger

import "time"

// ProductLine is one SKU's contribution to a category valuation.
type ProductLine struct {
	SKU      string
	Name     string
	Quantity float64
	UnitCost float64
	Value    float64
}

// CategoryValuation aggregates on-hand value and quantity for one category.
type CategoryValuation struct {
	Category      string
	TotalValue    float64
	TotalQuantity float64
	Products      []ProductLine
}

// Valuation is the result of InventoryValue. InventoryStartDate is nil when
// the ledger holds no receipts; the remaining fields are then zero/empty.
type Valuation struct {
	InventoryStartDate *time.Time
	TotalValue         float64
	TotalQuantity      float64
	ByCategory         []CategoryValuation
}

// InventoryValue computes current on-hand quantity and value per SKU and
// category as of a cutoff. A zero cutoff defaults to the earliest receipt
// date across the whole ledger, so the valuation is incremental from that
// inception anchor rather than absolute life-to-date: receipts and sales
// strictly before the cutoff are excluded from the netting. Valuation prices
// on-hand units at the product master's standard cost, not the cost paid on
// any individual lot. SKUs with zero on-hand stock produce no line item, and
// categories appear in order of first encounter.
func (l *Ledger) InventoryValue(cutoff time.Time) Valuation {
	start, ok := l.EarliestReceiptDate()
	if !ok {
		return Valuation{ByCategory: []CategoryValuation{}}
	}
	if cutoff.IsZero() {
		cutoff = start
	}

	result := Valuation{InventoryStartDate: &start, ByCategory: []CategoryValuation{}}
	catIndex := make(map[string]int)

	for _, sku := range l.skus {
		var received, sold float64
		for _, r := range l.receipts[sku] {
			if !r.ReceiptDate.Before(cutoff) {
				received += r.Quantity
			}
		}
		for _, s := range l.sales[sku] {
			if !s.TransactionDate.Before(cutoff) {
				sold += s.Quantity
			}
		}
		qty := received - sold
		if qty <= 0 {
			continue
		}

		p := l.products[sku]
		value := qty * p.StandardCost
		result.TotalQuantity += qty
		result.TotalValue += value

		idx, ok := catIndex[p.Category]
		if !ok {
			idx = len(result.ByCategory)
			catIndex[p.Category] = idx
			result.ByCategory = append(result.ByCategory, CategoryValuation{Category: p.Category})
		}
		cat := &result.ByCategory[idx]
		cat.TotalValue += value
		cat.TotalQuantity += qty
		cat.Products = append(cat.Products, ProductLine{
			SKU:      sku,
			Name:     p.Name,
			Quantity: qty,
			UnitCost: p.StandardCost,
			Value:    value,
		})
	}
	return result
}
