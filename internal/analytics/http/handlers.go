// Package analytichttp exposes the ledger analytics service as a JSON API.
package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/daymart-erp/daymart-analytics/internal/analytics"
	"github.com/daymart-erp/daymart-analytics/internal/analytics/export"
	"github.com/daymart-erp/daymart-analytics/internal/ledger"
	"github.com/daymart-erp/daymart-analytics/internal/platform/httpx"
)

const requestTimeout = 5 * time.Second

// AnalyticsService defines the ledger analytics contract used by the handler.
type AnalyticsService interface {
	GetOverview(ctx context.Context, asOf time.Time) (analytics.Overview, error)
	GetInventoryValue(ctx context.Context, cutoff time.Time) (ledger.Valuation, error)
	GetStockAge(ctx context.Context, asOf time.Time) (ledger.StockAge, error)
	GetProfitability(ctx context.Context, win ledger.Window) (ledger.Profitability, error)
	GetProductAges(ctx context.Context, asOf time.Time) (ledger.ProductAgeReport, error)
	GetRollingRevenue(ctx context.Context, end time.Time, windows []int) ([]ledger.WindowRevenue, error)
	GetRevenueTrend(ctx context.Context) ([]ledger.TrendPoint, error)
	GetCashOutflowTrend(ctx context.Context) ([]ledger.TrendPoint, error)
	GetNetCreditPosition() (float64, error)
	Reload(ctx context.Context) error
}

// Handler coordinates HTTP requests for the inventory analytics API.
type Handler struct {
	logger  *slog.Logger
	service AnalyticsService
	csvPool sync.Pool
	now     func() time.Time
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService) *Handler {
	h := &Handler{
		logger:  logger,
		service: service,
		now:     time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	overview, err := h.service.GetOverview(ctx, asOf)
	if err != nil {
		h.respondServiceError(w, "load overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOverviewDTO(overview))
}

func (h *Handler) handleInventoryValue(w http.ResponseWriter, r *http.Request) {
	cutoff, err := parseDateParam(r, "cutoff")
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	valuation, err := h.service.GetInventoryValue(ctx, cutoff)
	if err != nil {
		h.respondServiceError(w, "load inventory value", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toValuationDTO(valuation))
}

func (h *Handler) handleStockAge(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	age, err := h.service.GetStockAge(ctx, asOf)
	if err != nil {
		h.respondServiceError(w, "load stock age", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toStockAgeDTO(age))
}

func (h *Handler) handleProfitability(w http.ResponseWriter, r *http.Request) {
	win, err := parseWindow(r)
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	prof, err := h.service.GetProfitability(ctx, win)
	if err != nil {
		h.respondServiceError(w, "load profitability", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfitabilityDTO(win, prof))
}

func (h *Handler) handleProductAge(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.GetProductAges(ctx, asOf)
	if err != nil {
		h.respondServiceError(w, "load product ages", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductAgeReportDTO(report))
}

func (h *Handler) handleRollingRevenue(w http.ResponseWriter, r *http.Request) {
	end, err := parseDateParam(r, "end")
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	windows, err := parseWindowsParam(r)
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	revenues, err := h.service.GetRollingRevenue(ctx, end, windows)
	if err != nil {
		h.respondServiceError(w, "load rolling revenue", err)
		return
	}
	out := rollingRevenueDTO{Windows: toWindowRevenueDTOs(revenues)}
	if !end.IsZero() {
		out.End = end.Format(dateLayout)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleRevenueTrend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	points, err := h.service.GetRevenueTrend(ctx)
	if err != nil {
		h.respondServiceError(w, "load revenue trend", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTrendDTO(points))
}

func (h *Handler) handleCashOutflowTrend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	points, err := h.service.GetCashOutflowTrend(ctx)
	if err != nil {
		h.respondServiceError(w, "load cash outflow trend", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTrendDTO(points))
}

func (h *Handler) handleNetCreditPosition(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.GetNetCreditPosition(); err != nil {
		h.respondServiceError(w, "net credit position", err)
		return
	}
	// Unreachable with the current data model; kept for when payment events land.
	httpx.JSON(w, http.StatusOK, map[string]float64{"net_credit_position": 0})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.service.Reload(ctx); err != nil {
		h.respondServiceError(w, "reload snapshot", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "reloaded"})
}

func (h *Handler) handleValuationCSV(w http.ResponseWriter, r *http.Request) {
	cutoff, err := parseDateParam(r, "cutoff")
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	valuation, err := h.service.GetInventoryValue(ctx, cutoff)
	if err != nil {
		h.respondServiceError(w, "load inventory value", err)
		return
	}

	h.streamCSV(w, "inventory-value.csv", func(buf *bytes.Buffer) error {
		return export.WriteValuationCSV(buf, valuation)
	})
}

func (h *Handler) handleProductAgeCSV(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.GetProductAges(ctx, asOf)
	if err != nil {
		h.respondServiceError(w, "load product ages", err)
		return
	}

	h.streamCSV(w, "product-age.csv", func(buf *bytes.Buffer) error {
		return export.WriteProductAgeCSV(buf, report)
	})
}

func (h *Handler) handleStockAgeCSV(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	age, err := h.service.GetStockAge(ctx, asOf)
	if err != nil {
		h.respondServiceError(w, "load stock age", err)
		return
	}

	h.streamCSV(w, "stock-age.csv", func(buf *bytes.Buffer) error {
		return export.WriteStockAgeCSV(buf, age)
	})
}

func (h *Handler) handleTrendsCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	revenue, err := h.service.GetRevenueTrend(ctx)
	if err != nil {
		h.respondServiceError(w, "load revenue trend", err)
		return
	}
	outflow, err := h.service.GetCashOutflowTrend(ctx)
	if err != nil {
		h.respondServiceError(w, "load cash outflow trend", err)
		return
	}

	h.streamCSV(w, "trends.csv", func(buf *bytes.Buffer) error {
		if err := export.WriteTrendCSV(buf, "Revenue", revenue); err != nil {
			return err
		}
		buf.WriteString("\n")
		return export.WriteTrendCSV(buf, "Cash Outflow", outflow)
	})
}

func (h *Handler) streamCSV(w http.ResponseWriter, filename string, write func(*bytes.Buffer) error) {
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := write(buf); err != nil {
		h.respondServiceError(w, "write csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) respondFilterError(w http.ResponseWriter, err error) {
	httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", err.Error())
}

func (h *Handler) respondServiceError(w http.ResponseWriter, context string, err error) {
	if errors.Is(err, ledger.ErrUnsupportedMetric) {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unsupported Metric", err.Error())
		return
	}
	h.logError(context, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: expected YYYY-MM-DD", name)
	}
	return t.UTC(), nil
}

func parseWindow(r *http.Request) (ledger.Window, error) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		return ledger.Window{}, err
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		return ledger.Window{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return ledger.Window{}, fmt.Errorf("invalid window: to precedes from")
	}
	return ledger.Window{From: from, To: to}, nil
}

func parseWindowsParam(r *http.Request) ([]int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("windows"))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	windows := make([]int, 0, len(parts))
	for _, part := range parts {
		days, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid windows: expected comma separated positive day counts")
		}
		windows = append(windows, days)
	}
	return windows, nil
}
