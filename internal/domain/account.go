package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents a trading account in the domain layer.
// Balance is the free cash available for purchases and is never negative.
type Account struct {
	ID        uuid.UUID
	Name      string
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// Validate ensures the account adheres to domain rules.
func (a *Account) Validate() error {
	if a.ID == uuid.Nil {
		return errors.New("account ID cannot be empty")
	}
	if a.Balance.IsNegative() {
		return errors.New("account balance cannot be negative")
	}
	return nil
}
