package ledger

import (
	"sort"
	"time"
)

// DefaultTrendWindows are the rolling revenue lookbacks, in days: 30 days,
// 3 months, 6 months, 1 year, 2 years.
var DefaultTrendWindows = []int{30, 90, 180, 365, 730}

// WindowRevenue is revenue summed over one rolling lookback.
type WindowRevenue struct {
	Days    int
	Revenue float64
}

// TrendPoint is one calendar-month bucket of a monthly series, keyed by the
// month-end date.
type TrendPoint struct {
	PeriodEnd time.Time
	Value     float64
}

// RollingRevenue sums revenue over [end-window, end] for each window length,
// bounds inclusive. A zero end defaults to the latest sale date; nil windows
// default to DefaultTrendWindows. An empty ledger yields zero sums.
func (l *Ledger) RollingRevenue(end time.Time, windows []int) []WindowRevenue {
	if end.IsZero() {
		if latest, ok := l.latestSaleDate(); ok {
			end = latest
		}
	}
	if windows == nil {
		windows = DefaultTrendWindows
	}

	out := make([]WindowRevenue, 0, len(windows))
	for _, days := range windows {
		start := end.AddDate(0, 0, -days)
		var sum float64
		for _, txs := range l.sales {
			for _, s := range txs {
				if s.TransactionDate.Before(start) || s.TransactionDate.After(end) {
					continue
				}
				sum += s.Quantity * s.SalePrice
			}
		}
		out = append(out, WindowRevenue{Days: days, Revenue: sum})
	}
	return out
}

// MonthlyRevenue groups revenue by calendar month-end, chronologically.
// Months without sales inside the covered range appear as zero-valued
// points, so the series is continuous and chart-ready.
func (l *Ledger) MonthlyRevenue() []TrendPoint {
	buckets := make(map[time.Time]float64)
	for _, txs := range l.sales {
		for _, s := range txs {
			buckets[monthEnd(s.TransactionDate)] += s.Quantity * s.SalePrice
		}
	}
	return fillMonths(buckets)
}

// MonthlyCashOutflow groups stock spend (quantity times actual lot cost) by
// calendar month-end, with the same zero-fill policy as MonthlyRevenue.
func (l *Ledger) MonthlyCashOutflow() []TrendPoint {
	buckets := make(map[time.Time]float64)
	for _, lots := range l.receipts {
		for _, r := range lots {
			buckets[monthEnd(r.ReceiptDate)] += r.Quantity * r.UnitCost
		}
	}
	return fillMonths(buckets)
}

// monthEnd normalises t to the last day of its calendar month, UTC midnight.
func monthEnd(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

// fillMonths expands sparse month buckets into a continuous chronological
// series from the first to the last observed month.
func fillMonths(buckets map[time.Time]float64) []TrendPoint {
	if len(buckets) == 0 {
		return []TrendPoint{}
	}
	ends := make([]time.Time, 0, len(buckets))
	for end := range buckets {
		ends = append(ends, end)
	}
	sort.Slice(ends, func(i, j int) bool { return ends[i].Before(ends[j]) })

	first, last := ends[0], ends[len(ends)-1]
	points := []TrendPoint{}
	for cur := first; !cur.After(last); {
		points = append(points, TrendPoint{PeriodEnd: cur, Value: buckets[cur]})
		y, m, _ := cur.Date()
		cur = time.Date(y, m+2, 0, 0, 0, 0, 0, time.UTC)
	}
	return points
}
