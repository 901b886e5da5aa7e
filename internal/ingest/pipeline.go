package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/daymart-erp/daymart-analytics/internal/ledger"
)

// Feed file names expected under the raw data directory.
const (
	ProductMasterFile     = "product_master.csv"
	StockReceiptsFile     = "stock_receipts.csv"
	SalesTransactionsFile = "sales_transactions.csv"
)

// Options configures the pipeline directories. CleanDir is optional; when
// set, the cleaned feeds are also written there with canonical headers.
type Options struct {
	RawDir        string
	CleanDir      string
	QuarantineDir string
}

// Result carries the cleaned records and quarantine counts of one run.
type Result struct {
	Products    []ledger.Product
	Receipts    []ledger.Receipt
	Sales       []ledger.Sale
	Quarantined int
}

// Pipeline runs the clean-and-quarantine pass over the three raw feeds.
type Pipeline struct {
	opts   Options
	reader *Reader
	logger *slog.Logger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(opts Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{opts: opts, reader: NewReader(), logger: logger}
}

// Run reads the raw feeds, quarantines invalid rows and returns the cleaned
// records ready for loading. Quarantine files are written per source feed.
func (p *Pipeline) Run() (*Result, error) {
	if err := os.MkdirAll(p.opts.QuarantineDir, 0o755); err != nil {
		return nil, fmt.Errorf("ingest: create quarantine dir: %w", err)
	}

	result := &Result{}

	products, quarantined, err := p.runProducts()
	if err != nil {
		return nil, err
	}
	result.Products = products
	result.Quarantined += quarantined

	known := make(map[string]bool, len(products))
	for _, prod := range products {
		known[prod.SKU] = true
	}

	receipts, quarantined, err := p.runReceipts(known)
	if err != nil {
		return nil, err
	}
	result.Receipts = receipts
	result.Quarantined += quarantined

	sales, quarantined, err := p.runSales(known)
	if err != nil {
		return nil, err
	}
	result.Sales = sales
	result.Quarantined += quarantined

	if err := p.writeClean(result); err != nil {
		return nil, err
	}

	p.logger.Info("ingest pipeline complete",
		slog.Int("products", len(result.Products)),
		slog.Int("receipts", len(result.Receipts)),
		slog.Int("sales", len(result.Sales)),
		slog.Int("quarantined", result.Quarantined))
	return result, nil
}

func (p *Pipeline) runProducts() ([]ledger.Product, int, error) {
	f, err := os.Open(filepath.Join(p.opts.RawDir, ProductMasterFile))
	if err != nil {
		return nil, 0, fmt.Errorf("ingest: open product master: %w", err)
	}
	defer f.Close()

	products, rows, err := p.reader.Products(f, ProductMasterFile)
	if err != nil {
		return nil, 0, err
	}
	if err := p.writeQuarantine(ProductMasterFile, rows); err != nil {
		return nil, 0, err
	}
	return products, len(rows), nil
}

func (p *Pipeline) runReceipts(known map[string]bool) ([]ledger.Receipt, int, error) {
	f, err := os.Open(filepath.Join(p.opts.RawDir, StockReceiptsFile))
	if err != nil {
		return nil, 0, fmt.Errorf("ingest: open stock receipts: %w", err)
	}
	defer f.Close()

	receipts, rows, err := p.reader.Receipts(f, StockReceiptsFile, known)
	if err != nil {
		return nil, 0, err
	}
	if err := p.writeQuarantine(StockReceiptsFile, rows); err != nil {
		return nil, 0, err
	}
	return receipts, len(rows), nil
}

func (p *Pipeline) runSales(known map[string]bool) ([]ledger.Sale, int, error) {
	f, err := os.Open(filepath.Join(p.opts.RawDir, SalesTransactionsFile))
	if err != nil {
		return nil, 0, fmt.Errorf("ingest: open sales transactions: %w", err)
	}
	defer f.Close()

	sales, rows, err := p.reader.Sales(f, SalesTransactionsFile, known)
	if err != nil {
		return nil, 0, err
	}
	if err := p.writeQuarantine(SalesTransactionsFile, rows); err != nil {
		return nil, 0, err
	}
	return sales, len(rows), nil
}

func (p *Pipeline) writeClean(result *Result) error {
	if p.opts.CleanDir == "" {
		return nil
	}
	if err := os.MkdirAll(p.opts.CleanDir, 0o755); err != nil {
		return fmt.Errorf("ingest: create clean dir: %w", err)
	}

	writers := []struct {
		name  string
		write func(f *os.File) error
	}{
		{ProductMasterFile, func(f *os.File) error { return WriteProductsCSV(f, result.Products) }},
		{StockReceiptsFile, func(f *os.File) error { return WriteReceiptsCSV(f, result.Receipts) }},
		{SalesTransactionsFile, func(f *os.File) error { return WriteSalesCSV(f, result.Sales) }},
	}
	for _, w := range writers {
		f, err := os.Create(filepath.Join(p.opts.CleanDir, w.name))
		if err != nil {
			return fmt.Errorf("ingest: create clean file: %w", err)
		}
		if err := w.write(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("ingest: close clean file: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) writeQuarantine(source string, rows []QuarantinedRow) error {
	if len(rows) == 0 {
		return nil
	}
	p.logger.Warn("quarantined rows", slog.String("source", source), slog.Int("count", len(rows)))

	f, err := os.Create(filepath.Join(p.opts.QuarantineDir, source+"_quarantine.csv"))
	if err != nil {
		return fmt.Errorf("ingest: create quarantine file: %w", err)
	}
	defer f.Close()
	return WriteQuarantine(f, rows)
}
