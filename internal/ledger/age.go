package ledger

import (
	"sort"
	"time"
)

// ProductAge measures how long a SKU has existed in the catalog: days since
// its first-ever receipt. This is orthogonal to FIFO stock age, which
// measures how long the currently held units have been sitting.
type ProductAge struct {
	SKU              string
	Name             string
	Category         string
	FirstReceiptDate time.Time
	AgeDays          int
}

// ProductAgeReport is the result of ProductAges. SKUs with no receipts are
// excluded; ProductsByAge is sorted oldest first.
type ProductAgeReport struct {
	AsOf           time.Time
	TotalProducts  int
	AverageAgeDays float64
	OldestAgeDays  int
	NewestAgeDays  int
	ProductsByAge  []ProductAge
}

// ProductAges reports per-SKU catalog age relative to asOf, based on the
// earliest stock receipt per SKU rather than any master-record timestamp.
func (l *Ledger) ProductAges(asOf time.Time) ProductAgeReport {
	ages := []ProductAge{}
	for _, sku := range l.skus {
		lots := l.receipts[sku]
		if len(lots) == 0 {
			continue
		}
		first := lots[0].ReceiptDate
		for _, r := range lots[1:] {
			if r.ReceiptDate.Before(first) {
				first = r.ReceiptDate
			}
		}
		p := l.products[sku]
		ages = append(ages, ProductAge{
			SKU:              sku,
			Name:             p.Name,
			Category:         p.Category,
			FirstReceiptDate: first,
			AgeDays:          daysBetween(asOf, first),
		})
	}

	if len(ages) == 0 {
		return ProductAgeReport{AsOf: asOf, ProductsByAge: []ProductAge{}}
	}

	report := ProductAgeReport{
		AsOf:          asOf,
		TotalProducts: len(ages),
		OldestAgeDays: ages[0].AgeDays,
		NewestAgeDays: ages[0].AgeDays,
	}
	var sum int
	for _, a := range ages {
		sum += a.AgeDays
		if a.AgeDays > report.OldestAgeDays {
			report.OldestAgeDays = a.AgeDays
		}
		if a.AgeDays < report.NewestAgeDays {
			report.NewestAgeDays = a.AgeDays
		}
	}
	report.AverageAgeDays = float64(sum) / float64(len(ages))

	sort.SliceStable(ages, func(i, j int) bool { return ages[i].AgeDays > ages[j].AgeDays })
	report.ProductsByAge = ages
	return report
}
