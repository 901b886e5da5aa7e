package ledger

import (
	"errors"
	"fmt"
)

// ErrUnsupportedMetric indicates a metric that cannot be derived from the
// ledger data model. It is returned explicitly instead of a fabricated zero.
var ErrUnsupportedMetric = errors.New("ledger: metric not derivable from ledger data")

// UnknownSKUError reports a receipt or sale referencing a SKU absent from the
// product master. Raised at construction, never swallowed.
type UnknownSKUError struct {
	SKU    string
	Source string
}

func (e *UnknownSKUError) Error() string {
	return fmt.Sprintf("ledger: %s references unknown sku %q", e.Source, e.SKU)
}
