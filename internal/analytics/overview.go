package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

// Overview bundles the dashboard headline figures into a single response.
type Overview struct {
	AsOf           time.Time
	Valuation      ledger.Valuation
	Profitability  ledger.Profitability
	StockAge       ledger.StockAge
	RollingRevenue []ledger.WindowRevenue
}

// GetOverview resolves the dashboard card set concurrently. Each sub-query
// goes through the cache on its own key so partial cache hits still help.
func (s *Service) GetOverview(ctx context.Context, asOf time.Time) (Overview, error) {
	asOf = s.resolveAsOf(asOf)
	out := Overview{AsOf: asOf}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.GetInventoryValue(gctx, time.Time{})
		out.Valuation = v
		return err
	})
	g.Go(func() error {
		p, err := s.GetProfitability(gctx, ledger.Window{})
		out.Profitability = p
		return err
	})
	g.Go(func() error {
		a, err := s.GetStockAge(gctx, asOf)
		out.StockAge = a
		return err
	})
	g.Go(func() error {
		r, err := s.GetRollingRevenue(gctx, asOf, nil)
		out.RollingRevenue = r
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}
