package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers inventory analytics endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/overview", h.handleOverview)
	r.Get("/inventory-value", h.handleInventoryValue)
	r.Get("/stock-age", h.handleStockAge)
	r.Get("/profitability", h.handleProfitability)
	r.Get("/product-age", h.handleProductAge)
	r.Get("/net-credit-position", h.handleNetCreditPosition)
	r.Get("/trends/rolling-revenue", h.handleRollingRevenue)
	r.Get("/trends/revenue", h.handleRevenueTrend)
	r.Get("/trends/cash-outflow", h.handleCashOutflowTrend)
	r.Post("/refresh", h.handleRefresh)

	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/export/inventory-value.csv", h.handleValuationCSV)
		gr.Get("/export/product-age.csv", h.handleProductAgeCSV)
		gr.Get("/export/stock-age.csv", h.handleStockAgeCSV)
		gr.Get("/export/trends.csv", h.handleTrendsCSV)
	})
}
