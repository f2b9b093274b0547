package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountState is the unit of atomic load/save on the LedgerStore:
// one account's cash balance plus its full holding set.
//
// All state transitions validate their inputs and business rules before
// touching any field, so a returned error always means the state is
// unchanged. Conservation of value holds across every transition: cash
// spent on buys minus cash received from sells minus net deposits
// equals the negative of the balance delta since creation.
type AccountState struct {
	Account  Account
	Holdings []Holding
}

// Holding returns the holding for symbol, or false if the account does
// not hold it.
func (s *AccountState) Holding(symbol string) (Holding, bool) {
	for _, h := range s.Holdings {
		if h.Symbol == symbol {
			return h, true
		}
	}
	return Holding{}, false
}

// Deposit increases the cash balance. Amount must be positive.
func (s *AccountState) Deposit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	s.Account.Balance = s.Account.Balance.Add(amount)
	return nil
}

// Buy debits quantity*price from the balance and merges the shares into
// the holding set. A buy into an existing holding recomputes the
// weighted-average cost: (oldQty*oldAvg + newQty*price) / (oldQty+newQty).
// The balance check happens before any mutation, so two concurrent buys
// serialized by the caller can never both spend the same cash.
func (s *AccountState) Buy(symbol string, quantity int64, price decimal.Decimal, now time.Time) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}

	cost := price.Mul(decimal.NewFromInt(quantity))
	if cost.GreaterThan(s.Account.Balance) {
		return ErrInsufficientFunds
	}

	s.Account.Balance = s.Account.Balance.Sub(cost)

	for i, h := range s.Holdings {
		if h.Symbol != symbol {
			continue
		}
		newQty := h.Quantity + quantity
		// Weighted mean of the old cost basis and the new lot.
		newAvg := h.CostBasis().Add(cost).Div(decimal.NewFromInt(newQty))
		s.Holdings[i].Quantity = newQty
		s.Holdings[i].AvgPrice = newAvg
		return nil
	}

	s.Holdings = append(s.Holdings, Holding{
		Symbol:      symbol,
		Quantity:    quantity,
		AvgPrice:    price,
		FirstBought: now,
	})
	return nil
}

// Sell credits quantity*price to the balance and removes the shares
// from the holding set. Selling every share deletes the holding.
// Sells never change the average purchase price; only buys move the
// cost basis.
func (s *AccountState) Sell(symbol string, quantity int64, price decimal.Decimal) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}

	idx := -1
	for i, h := range s.Holdings {
		if h.Symbol == symbol {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrHoldingNotFound
	}
	if quantity > s.Holdings[idx].Quantity {
		return ErrInsufficientShares
	}

	s.Account.Balance = s.Account.Balance.Add(price.Mul(decimal.NewFromInt(quantity)))

	if quantity == s.Holdings[idx].Quantity {
		s.Holdings = append(s.Holdings[:idx], s.Holdings[idx+1:]...)
	} else {
		s.Holdings[idx].Quantity -= quantity
	}
	return nil
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the mutable holding slice.
func (s *AccountState) Clone() *AccountState {
	holdings := make([]Holding, len(s.Holdings))
	copy(holdings, s.Holdings)
	return &AccountState{
		Account:  s.Account,
		Holdings: holdings,
	}
}

// NewAccountState creates the state for a freshly registered account
// with the given starting balance and no holdings.
func NewAccountState(id uuid.UUID, name string, startingBalance decimal.Decimal, now time.Time) *AccountState {
	return &AccountState{
		Account: Account{
			ID:        id,
			Name:      name,
			Balance:   startingBalance,
			CreatedAt: now,
		},
	}
}
