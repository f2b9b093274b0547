package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents a position in one symbol owned by an account.
// A stored holding always has Quantity > 0; selling the last share
// removes the holding instead of keeping a zero-quantity record.
type Holding struct {
	Symbol      string
	Quantity    int64
	AvgPrice    decimal.Decimal // quantity-weighted average purchase price
	FirstBought time.Time
}

// CostBasis returns the total acquisition cost of the position
// (quantity times the weighted-average purchase price).
func (h *Holding) CostBasis() decimal.Decimal {
	return h.AvgPrice.Mul(decimal.NewFromInt(h.Quantity))
}
