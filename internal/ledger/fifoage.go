package ledger

import (
	"fmt"
	"sort"
	"time"
)

// SKUStockAge reports the quantity-weighted age of one SKU's on-hand stock.
type SKUStockAge struct {
	SKU            string
	OnHand         float64
	AverageAgeDays float64
}

// StockAge is the result of FIFOStockAge. Warnings carry per-SKU
// data-consistency notes when on-hand quantity exceeds the receipted total.
type StockAge struct {
	AsOf           time.Time
	TotalOnHand    float64
	AverageAgeDays float64
	BySKU          []SKUStockAge
	Warnings       []string
}

// FIFOStockAge computes the quantity-weighted age of on-hand stock under a
// FIFO consumption assumption. Because the oldest stock is assumed sold
// first, the units still on hand must be the most recently received ones, so
// the walk visits each SKU's lots newest-first: whole lots are attributed
// until the on-hand quantity is covered, and the final lot contributes only
// the remainder. Walking oldest-first would attribute age to lots that FIFO
// consumption has already depleted and is incorrect.
//
// On-hand quantity is netted life-to-date (no cutoff) and floored at zero.
// When on-hand stock exceeds the visible lots, which can only happen with
// inconsistent data, the contribution is capped at the receipted quantity
// and a warning is recorded instead of failing.
func (l *Ledger) FIFOStockAge(asOf time.Time) StockAge {
	result := StockAge{AsOf: asOf, BySKU: []SKUStockAge{}}
	var weightedAge float64

	for _, sku := range l.skus {
		qty := l.onHand(sku)
		if qty == 0 {
			continue
		}

		lots := make([]Receipt, len(l.receipts[sku]))
		copy(lots, l.receipts[sku])
		sort.SliceStable(lots, func(i, j int) bool {
			return lots[i].ReceiptDate.After(lots[j].ReceiptDate)
		})

		remaining := qty
		var skuWeighted, covered float64
		for _, lot := range lots {
			if remaining == 0 {
				break
			}
			age := float64(daysBetween(asOf, lot.ReceiptDate))
			if lot.Quantity <= remaining {
				skuWeighted += age * lot.Quantity
				covered += lot.Quantity
				remaining -= lot.Quantity
			} else {
				skuWeighted += age * remaining
				covered += remaining
				remaining = 0
			}
		}
		if remaining > 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("sku %s: on-hand %.2f exceeds receipted quantity by %.2f", sku, qty, remaining))
		}

		weightedAge += skuWeighted
		result.TotalOnHand += qty
		entry := SKUStockAge{SKU: sku, OnHand: qty}
		if covered > 0 {
			entry.AverageAgeDays = skuWeighted / covered
		}
		result.BySKU = append(result.BySKU, entry)
	}

	if result.TotalOnHand > 0 {
		result.AverageAgeDays = weightedAge / result.TotalOnHand
	}
	return result
}
