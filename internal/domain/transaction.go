package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side represents the direction of a completed trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Transaction is the immutable audit record of one completed trade.
// Records are created by the transaction recorder, appended to the log
// and never mutated or deleted afterwards.
type Transaction struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Symbol    string
	Quantity  int64 // always positive; direction is carried by Side
	Price     decimal.Decimal
	Side      Side
	Date      time.Time
}

// SignedQuantity returns the quantity with the trade direction applied:
// positive for buys, negative for sells.
func (t *Transaction) SignedQuantity() int64 {
	if t.Side == SideSell {
		return -t.Quantity
	}
	return t.Quantity
}

// Validate ensures the transaction adheres to domain rules.
func (t *Transaction) Validate() error {
	if t.AccountID == uuid.Nil {
		return errors.New("transaction account ID cannot be empty")
	}
	if t.Symbol == "" {
		return errors.New("transaction symbol cannot be empty")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return errors.New("transaction side must be BUY or SELL")
	}
	if t.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if t.Price.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}
	return nil
}
