// internal/core/ports/metrics.go
package ports

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingMetrics receives business events from the services.
type BillingMetrics interface {
	BillCreated(items int, total decimal.Decimal, elapsed time.Duration)
	BillFailed(kind string)
	ConflictRetried()
	StockAdded(newMedicine bool)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) BillCreated(int, decimal.Decimal, time.Duration) {}
func (NopMetrics) BillFailed(string)                               {}
func (NopMetrics) ConflictRetried()                                {}
func (NopMetrics) StockAdded(bool)                                 {}
