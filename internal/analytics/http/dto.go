package analytichttp

import (
	"github.com/daymart-erp/daymart-analytics/internal/analytics"
	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

const dateLayout = "2006-01-02"

type productLineDTO struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
	Value    float64 `json:"value"`
}

type categoryValuationDTO struct {
	Category      string           `json:"category"`
	TotalValue    float64          `json:"total_value"`
	TotalQuantity float64          `json:"total_quantity"`
	Products      []productLineDTO `json:"products"`
}

type valuationDTO struct {
	InventoryStartDate *string                `json:"inventory_start_date"`
	TotalValue         float64                `json:"total_value"`
	TotalQuantity      float64                `json:"total_quantity"`
	ByCategory         []categoryValuationDTO `json:"by_category"`
}

type skuStockAgeDTO struct {
	SKU            string  `json:"sku"`
	OnHand         float64 `json:"on_hand"`
	AverageAgeDays float64 `json:"average_age_days"`
}

type stockAgeDTO struct {
	AsOf           string           `json:"as_of"`
	TotalOnHand    float64          `json:"total_on_hand"`
	AverageAgeDays float64          `json:"average_age_days"`
	BySKU          []skuStockAgeDTO `json:"by_sku"`
	Warnings       []string         `json:"warnings,omitempty"`
}

type profitabilityDTO struct {
	From        *string `json:"from"`
	To          *string `json:"to"`
	Revenue     float64 `json:"revenue"`
	COGS        float64 `json:"cogs"`
	GrossProfit float64 `json:"gross_profit"`
	PPV         float64 `json:"purchase_price_variance"`
	CashOutflow float64 `json:"cash_outflow"`
}

type productAgeDTO struct {
	SKU              string `json:"sku"`
	Name             string `json:"name"`
	Category         string `json:"category"`
	FirstReceiptDate string `json:"first_receipt_date"`
	AgeDays          int    `json:"age_days"`
}

type productAgeReportDTO struct {
	AsOf           string          `json:"as_of"`
	TotalProducts  int             `json:"total_products"`
	AverageAgeDays float64         `json:"average_age_days"`
	OldestAgeDays  int             `json:"oldest_age_days"`
	NewestAgeDays  int             `json:"newest_age_days"`
	ProductsByAge  []productAgeDTO `json:"products_by_age"`
}

type windowRevenueDTO struct {
	Days    int     `json:"days"`
	Revenue float64 `json:"revenue"`
}

type rollingRevenueDTO struct {
	End     string             `json:"end"`
	Windows []windowRevenueDTO `json:"windows"`
}

type trendPointDTO struct {
	PeriodEnd string  `json:"period_end"`
	Value     float64 `json:"value"`
}

type trendDTO struct {
	Points []trendPointDTO `json:"points"`
}

type overviewDTO struct {
	AsOf           string             `json:"as_of"`
	Valuation      valuationDTO       `json:"valuation"`
	Profitability  profitabilityDTO   `json:"profitability"`
	StockAge       stockAgeDTO        `json:"stock_age"`
	RollingRevenue []windowRevenueDTO `json:"rolling_revenue"`
}

func toValuationDTO(v ledger.Valuation) valuationDTO {
	out := valuationDTO{
		TotalValue:    v.TotalValue,
		TotalQuantity: v.TotalQuantity,
		ByCategory:    make([]categoryValuationDTO, 0, len(v.ByCategory)),
	}
	if v.InventoryStartDate != nil {
		s := v.InventoryStartDate.Format(dateLayout)
		out.InventoryStartDate = &s
	}
	for _, cat := range v.ByCategory {
		catDTO := categoryValuationDTO{
			Category:      cat.Category,
			TotalValue:    cat.TotalValue,
			TotalQuantity: cat.TotalQuantity,
			Products:      make([]productLineDTO, 0, len(cat.Products)),
		}
		for _, line := range cat.Products {
			catDTO.Products = append(catDTO.Products, productLineDTO{
				SKU:      line.SKU,
				Name:     line.Name,
				Quantity: line.Quantity,
				UnitCost: line.UnitCost,
				Value:    line.Value,
			})
		}
		out.ByCategory = append(out.ByCategory, catDTO)
	}
	return out
}

func toStockAgeDTO(a ledger.StockAge) stockAgeDTO {
	out := stockAgeDTO{
		AsOf:           a.AsOf.Format(dateLayout),
		TotalOnHand:    a.TotalOnHand,
		AverageAgeDays: a.AverageAgeDays,
		BySKU:          make([]skuStockAgeDTO, 0, len(a.BySKU)),
		Warnings:       a.Warnings,
	}
	for _, sku := range a.BySKU {
		out.BySKU = append(out.BySKU, skuStockAgeDTO{
			SKU:            sku.SKU,
			OnHand:         sku.OnHand,
			AverageAgeDays: sku.AverageAgeDays,
		})
	}
	return out
}

func toProfitabilityDTO(win ledger.Window, p ledger.Profitability) profitabilityDTO {
	out := profitabilityDTO{
		Revenue:     p.Revenue,
		COGS:        p.COGS,
		GrossProfit: p.GrossProfit,
		PPV:         p.PPV,
		CashOutflow: p.CashOutflow,
	}
	if !win.From.IsZero() {
		s := win.From.Format(dateLayout)
		out.From = &s
	}
	if !win.To.IsZero() {
		s := win.To.Format(dateLayout)
		out.To = &s
	}
	return out
}

func toProductAgeReportDTO(r ledger.ProductAgeReport) productAgeReportDTO {
	out := productAgeReportDTO{
		AsOf:           r.AsOf.Format(dateLayout),
		TotalProducts:  r.TotalProducts,
		AverageAgeDays: r.AverageAgeDays,
		OldestAgeDays:  r.OldestAgeDays,
		NewestAgeDays:  r.NewestAgeDays,
		ProductsByAge:  make([]productAgeDTO, 0, len(r.ProductsByAge)),
	}
	for _, p := range r.ProductsByAge {
		out.ProductsByAge = append(out.ProductsByAge, productAgeDTO{
			SKU:              p.SKU,
			Name:             p.Name,
			Category:         p.Category,
			FirstReceiptDate: p.FirstReceiptDate.Format(dateLayout),
			AgeDays:          p.AgeDays,
		})
	}
	return out
}

func toWindowRevenueDTOs(windows []ledger.WindowRevenue) []windowRevenueDTO {
	out := make([]windowRevenueDTO, 0, len(windows))
	for _, w := range windows {
		out = append(out, windowRevenueDTO{Days: w.Days, Revenue: w.Revenue})
	}
	return out
}

func toTrendDTO(points []ledger.TrendPoint) trendDTO {
	out := trendDTO{Points: make([]trendPointDTO, 0, len(points))}
	for _, p := range points {
		out.Points = append(out.Points, trendPointDTO{
			PeriodEnd: p.PeriodEnd.Format(dateLayout),
			Value:     p.Value,
		})
	}
	return out
}

func toOverviewDTO(o analytics.Overview) overviewDTO {
	return overviewDTO{
		AsOf:           o.AsOf.Format(dateLayout),
		Valuation:      toValuationDTO(o.Valuation),
		Profitability:  toProfitabilityDTO(ledger.Window{}, o.Profitability),
		StockAge:       toStockAgeDTO(o.StockAge),
		RollingRevenue: toWindowRevenueDTOs(o.RollingRevenue),
	}
}
