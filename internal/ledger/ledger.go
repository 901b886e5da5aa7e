// Package ledger implements the inventory ledger analytics engine: netting
// and valuation, FIFO lot aging, profitability and purchase price variance,
// trend rollups and product age analysis. The engine operates on an immutable
// snapshot built once from collaborator-supplied records; every query is a
// pure function of (snapshot, parameters) and may run concurrently with any
// other query against the same snapshot.
package ledger

import "time"

// Product is one row of the product master. StandardCost is the nominal unit
// cost used for valuation and COGS; receipts carry the cost actually paid.
type Product struct {
	SKU          string
	Name         string
	Category     string
	SubCategory  string
	Brand        string
	StandardCost float64
	SellingPrice float64
}

// Receipt records one stock lot received. Lots are append-only and never
// mutated; FIFO consumption is derived at query time.
type Receipt struct {
	SKU         string
	ReceiptDate time.Time
	Quantity    float64
	UnitCost    float64
	SupplierID  string
}

// Sale records one sales transaction at a revenue-bearing unit price.
type Sale struct {
	SKU             string
	TransactionDate time.Time
	Quantity        float64
	SalePrice       float64
}

// Ledger is the immutable in-memory snapshot all analytics run against.
type Ledger struct {
	products map[string]Product
	receipts map[string][]Receipt
	sales    map[string][]Sale
	// skus preserves product input order; category rollups report categories
	// in order of first encounter, not sorted.
	skus []string
}

// New builds a Ledger from three flat record slices. Every receipt and sale
// must reference a SKU present in products: a violation fails construction
// with UnknownSKUError rather than dropping the row. Cleaning and quarantine
// of malformed rows is the ingestion collaborator's responsibility; the
// engine validates referential integrity only. O(n) in total record count.
func New(products []Product, receipts []Receipt, sales []Sale) (*Ledger, error) {
	l := &Ledger{
		products: make(map[string]Product, len(products)),
		receipts: make(map[string][]Receipt),
		sales:    make(map[string][]Sale),
		skus:     make([]string, 0, len(products)),
	}
	for _, p := range products {
		if _, ok := l.products[p.SKU]; !ok {
			l.skus = append(l.skus, p.SKU)
		}
		l.products[p.SKU] = p
	}
	for _, r := range receipts {
		if _, ok := l.products[r.SKU]; !ok {
			return nil, &UnknownSKUError{SKU: r.SKU, Source: "receipt"}
		}
		l.receipts[r.SKU] = append(l.receipts[r.SKU], r)
	}
	for _, s := range sales {
		if _, ok := l.products[s.SKU]; !ok {
			return nil, &UnknownSKUError{SKU: s.SKU, Source: "sale"}
		}
		l.sales[s.SKU] = append(l.sales[s.SKU], s)
	}
	return l, nil
}

// Products returns the product master rows in input order.
func (l *Ledger) Products() []Product {
	out := make([]Product, 0, len(l.skus))
	for _, sku := range l.skus {
		out = append(out, l.products[sku])
	}
	return out
}

// EarliestReceiptDate returns the minimum receipt date across the whole
// ledger, or ok=false when no receipts exist.
func (l *Ledger) EarliestReceiptDate() (time.Time, bool) {
	var min time.Time
	found := false
	for _, lots := range l.receipts {
		for _, r := range lots {
			if !found || r.ReceiptDate.Before(min) {
				min = r.ReceiptDate
				found = true
			}
		}
	}
	return min, found
}

// LatestEventDate returns the maximum observed date across receipts and
// sales, or ok=false for an empty ledger. Callers choose explicitly between
// this and wall clock as the as-of instant; the engine never mixes the two
// within one computation.
func (l *Ledger) LatestEventDate() (time.Time, bool) {
	var max time.Time
	found := false
	for _, lots := range l.receipts {
		for _, r := range lots {
			if !found || r.ReceiptDate.After(max) {
				max = r.ReceiptDate
				found = true
			}
		}
	}
	for _, txs := range l.sales {
		for _, s := range txs {
			if !found || s.TransactionDate.After(max) {
				max = s.TransactionDate
				found = true
			}
		}
	}
	return max, found
}

// latestSaleDate returns the maximum sale date, used as the default end of
// rolling revenue windows.
func (l *Ledger) latestSaleDate() (time.Time, bool) {
	var max time.Time
	found := false
	for _, txs := range l.sales {
		for _, s := range txs {
			if !found || s.TransactionDate.After(max) {
				max = s.TransactionDate
				found = true
			}
		}
	}
	return max, found
}

// onHand nets received against sold for one SKU over the full ledger life,
// floored at zero. Negative nets indicate data issues, not negative stock.
func (l *Ledger) onHand(sku string) float64 {
	var received, sold float64
	for _, r := range l.receipts[sku] {
		received += r.Quantity
	}
	for _, s := range l.sales[sku] {
		sold += s.Quantity
	}
	if net := received - sold; net > 0 {
		return net
	}
	return 0
}

// daysBetween reports whole days elapsed from t to asOf, truncated.
func daysBetween(asOf, t time.Time) int {
	return int(asOf.Sub(t).Hours() / 24)
}
