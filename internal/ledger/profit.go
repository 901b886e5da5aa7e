package ledger

import "time"

// Window bounds a profitability computation. Zero fields are unbounded, so
// the zero Window covers the full ledger. Bounds are inclusive.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// Profitability summarises revenue, cost and variance metrics. COGS prices
// sold units at the product master's standard cost, while CashOutflow prices
// received units at the cost actually paid, so the two deliberately diverge
// whenever purchase prices drift from standard.
type Profitability struct {
	Revenue     float64
	COGS        float64
	GrossProfit float64
	PPV         float64
	CashOutflow float64
}

// Profitability computes revenue, COGS, gross profit, purchase price
// variance and cash outflow on stock, restricted to sales and receipts
// inside the window. PPV compares the master standard cost with each lot's
// actual cost; a SKU with no standard cost on record contributes zero
// variance (standard is taken as actual). Positive PPV means purchases were
// cheaper than standard.
func (l *Ledger) Profitability(win Window) Profitability {
	var result Profitability

	for _, txs := range l.sales {
		for _, s := range txs {
			if !win.contains(s.TransactionDate) {
				continue
			}
			result.Revenue += s.Quantity * s.SalePrice
			// Missing master rows cannot occur after construction, but the
			// zero-value lookup keeps COGS at 0 rather than failing.
			result.COGS += s.Quantity * l.products[s.SKU].StandardCost
		}
	}
	result.GrossProfit = result.Revenue - result.COGS

	for _, lots := range l.receipts {
		for _, r := range lots {
			if !win.contains(r.ReceiptDate) {
				continue
			}
			standard := l.products[r.SKU].StandardCost
			if standard == 0 {
				standard = r.UnitCost
			}
			result.PPV += (standard - r.UnitCost) * r.Quantity
			result.CashOutflow += r.Quantity * r.UnitCost
		}
	}
	return result
}

// NetCreditPosition would require receivables and payables data, which the
// ledger does not model. It always returns ErrUnsupportedMetric.
func (l *Ledger) NetCreditPosition() (float64, error) {
	return 0, ErrUnsupportedMetric
}
