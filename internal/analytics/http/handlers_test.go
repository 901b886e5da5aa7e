package analytichttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daymart-erp/daymart-analytics/internal/analytics"
	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

type stubService struct {
	overview     analytics.Overview
	valuation    ledger.Valuation
	stockAge     ledger.StockAge
	profit       ledger.Profitability
	productAges  ledger.ProductAgeReport
	rolling      []ledger.WindowRevenue
	revenue      []ledger.TrendPoint
	outflow      []ledger.TrendPoint
	reloadCalls  int
	reloadErr    error
	lastCutoff   time.Time
	lastWindow   ledger.Window
	lastEnd      time.Time
	lastWindows  []int
	lastStockAge time.Time
}

func (s *stubService) GetOverview(ctx context.Context, asOf time.Time) (analytics.Overview, error) {
	return s.overview, nil
}

func (s *stubService) GetInventoryValue(ctx context.Context, cutoff time.Time) (ledger.Valuation, error) {
	s.lastCutoff = cutoff
	return s.valuation, nil
}

func (s *stubService) GetStockAge(ctx context.Context, asOf time.Time) (ledger.StockAge, error) {
	s.lastStockAge = asOf
	return s.stockAge, nil
}

func (s *stubService) GetProfitability(ctx context.Context, win ledger.Window) (ledger.Profitability, error) {
	s.lastWindow = win
	return s.profit, nil
}

func (s *stubService) GetProductAges(ctx context.Context, asOf time.Time) (ledger.ProductAgeReport, error) {
	return s.productAges, nil
}

func (s *stubService) GetRollingRevenue(ctx context.Context, end time.Time, windows []int) ([]ledger.WindowRevenue, error) {
	s.lastEnd = end
	s.lastWindows = windows
	return s.rolling, nil
}

func (s *stubService) GetRevenueTrend(ctx context.Context) ([]ledger.TrendPoint, error) {
	return s.revenue, nil
}

func (s *stubService) GetCashOutflowTrend(ctx context.Context) ([]ledger.TrendPoint, error) {
	return s.outflow, nil
}

func (s *stubService) GetNetCreditPosition() (float64, error) {
	return 0, ledger.ErrUnsupportedMetric
}

func (s *stubService) Reload(ctx context.Context) error {
	s.reloadCalls++
	return s.reloadErr
}

func newTestRouter(svc AnalyticsService) http.Handler {
	handler := NewHandler(slog.New(slog.DiscardHandler), svc)
	r := chi.NewRouter()
	r.Route("/api/v1/analytics", handler.MountRoutes)
	return r
}

func TestHandleInventoryValue(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := &stubService{
		valuation: ledger.Valuation{
			InventoryStartDate: &start,
			TotalValue:         60,
			TotalQuantity:      6,
			ByCategory: []ledger.CategoryValuation{
				{Category: "Tools", TotalValue: 60, TotalQuantity: 6,
					Products: []ledger.ProductLine{{SKU: "A", Name: "Widget", Quantity: 6, UnitCost: 10, Value: 60}}},
			},
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/inventory-value?cutoff=2024-02-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	wantCutoff := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !svc.lastCutoff.Equal(wantCutoff) {
		t.Fatalf("expected cutoff %s, got %s", wantCutoff, svc.lastCutoff)
	}

	var body struct {
		InventoryStartDate *string `json:"inventory_start_date"`
		TotalValue         float64 `json:"total_value"`
		ByCategory         []struct {
			Category string `json:"category"`
		} `json:"by_category"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.TotalValue != 60 {
		t.Fatalf("expected total value 60, got %.2f", body.TotalValue)
	}
	if body.InventoryStartDate == nil || *body.InventoryStartDate != "2024-01-01" {
		t.Fatalf("unexpected start date %v", body.InventoryStartDate)
	}
	if len(body.ByCategory) != 1 || body.ByCategory[0].Category != "Tools" {
		t.Fatalf("unexpected categories %v", body.ByCategory)
	}
}

func TestHandleInventoryValueRejectsBadCutoff(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/inventory-value?cutoff=02-2024", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cutoff") {
		t.Fatalf("expected problem detail naming cutoff, got %s", rec.Body.String())
	}
}

func TestHandleProfitabilityWindow(t *testing.T) {
	svc := &stubService{profit: ledger.Profitability{Revenue: 60, COGS: 40, GrossProfit: 20, PPV: 10, CashOutflow: 90}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/profitability?from=2024-01-01&to=2024-03-31", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastWindow.From.IsZero() || svc.lastWindow.To.IsZero() {
		t.Fatalf("expected bounded window, got %+v", svc.lastWindow)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["purchase_price_variance"].(float64) != 10 {
		t.Fatalf("unexpected ppv %v", body["purchase_price_variance"])
	}
	if body["cash_outflow"].(float64) != 90 {
		t.Fatalf("unexpected cash outflow %v", body["cash_outflow"])
	}
}

func TestHandleProfitabilityRejectsInvertedWindow(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/profitability?from=2024-03-01&to=2024-01-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleNetCreditPositionUnsupported(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/net-credit-position", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var problem struct {
		Title  string `json:"title"`
		Status int    `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Title != "Unsupported Metric" || problem.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected problem %+v", problem)
	}
}

func TestHandleRollingRevenueParsesWindows(t *testing.T) {
	svc := &stubService{rolling: []ledger.WindowRevenue{{Days: 30, Revenue: 60}}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/trends/rolling-revenue?end=2024-03-31&windows=30,90", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.lastWindows) != 2 || svc.lastWindows[0] != 30 || svc.lastWindows[1] != 90 {
		t.Fatalf("unexpected windows %v", svc.lastWindows)
	}
}

func TestHandleRollingRevenueRejectsBadWindows(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/trends/rolling-revenue?windows=30,-5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleRefresh(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if svc.reloadCalls != 1 {
		t.Fatalf("expected 1 reload call, got %d", svc.reloadCalls)
	}
}

func TestHandleValuationCSVDownload(t *testing.T) {
	svc := &stubService{
		valuation: ledger.Valuation{
			TotalValue:    60,
			TotalQuantity: 6,
			ByCategory: []ledger.CategoryValuation{
				{Category: "Tools", TotalValue: 60, TotalQuantity: 6,
					Products: []ledger.ProductLine{{SKU: "A", Name: "Widget", Quantity: 6, UnitCost: 10, Value: 60}}},
			},
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/export/inventory-value.csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Widget") {
		t.Fatalf("expected product row in csv, got %s", rec.Body.String())
	}
}

func TestHandleStockAgeCSVDownload(t *testing.T) {
	svc := &stubService{
		stockAge: ledger.StockAge{
			AsOf:        time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			TotalOnHand: 6,
			BySKU:       []ledger.SKUStockAge{{SKU: "A", OnHand: 6, AverageAgeDays: 10}},
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/export/stock-age.csv?as_of=2024-03-31", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	wantAsOf := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	if !svc.lastStockAge.Equal(wantAsOf) {
		t.Fatalf("expected as-of %s, got %s", wantAsOf, svc.lastStockAge)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Average Age Days") || !strings.Contains(body, "10.00") {
		t.Fatalf("unexpected csv body %s", body)
	}
}

func TestHandleStockAgeWarningsSurfaced(t *testing.T) {
	svc := &stubService{
		stockAge: ledger.StockAge{
			AsOf:        time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			TotalOnHand: 8,
			BySKU:       []ledger.SKUStockAge{{SKU: "A", OnHand: 8, AverageAgeDays: 12}},
			Warnings:    []string{"sku A: on-hand 8.00 exceeds receipted quantity by 3.00"},
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/stock-age?as_of=2024-03-31", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		AsOf     string   `json:"as_of"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.AsOf != "2024-03-31" {
		t.Fatalf("unexpected as_of %q", body.AsOf)
	}
	if len(body.Warnings) != 1 {
		t.Fatalf("expected warning to surface, got %v", body.Warnings)
	}
}
