// internal/core/domain/pricing.go
package domain

import "github.com/shopspring/decimal"

// CurrencyScale is the number of decimal places line amounts are rounded to.
const CurrencyScale = 2

// PriceScale is the number of decimal places a batch price is stored with.
const PriceScale = 4

// LinePrice is the amount and strip/tablet decomposition of one bill line.
type LinePrice struct {
	Amount  decimal.Decimal
	Strips  int
	Tablets int
}

// Price computes what requested tablets from b cost.
//
// Strip prices are divided after multiplying so 50/strip of 3 tablets still
// charges exactly 50 for 3 tablets.
func Price(b Batch, requested int) (LinePrice, error) {
	if requested <= 0 {
		return LinePrice{}, InvalidRequest("quantity must be positive, got %d", requested)
	}

	n := decimal.NewFromInt(int64(requested))

	if !b.IsStripBased {
		return LinePrice{
			Amount:  b.Price.Mul(n).Round(CurrencyScale),
			Tablets: requested,
		}, nil
	}

	if b.TabletsPerStrip <= 0 {
		return LinePrice{}, InvalidRequest("batch %s has no strip size", b.BatchNumber)
	}

	perStrip := decimal.NewFromInt(int64(b.TabletsPerStrip))
	return LinePrice{
		Amount:  b.Price.Mul(n).Div(perStrip).Round(CurrencyScale),
		Strips:  requested / b.TabletsPerStrip,
		Tablets: requested % b.TabletsPerStrip,
	}, nil
}
