package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(balance string) *AccountState {
	return NewAccountState(uuid.New(), "Test Account", decimal.RequireFromString(balance), time.Now())
}

func TestAccountState_Buy_NewHolding(t *testing.T) {
	state := newTestState("100000")

	err := state.Buy("AAPL", 10, decimal.RequireFromString("268.89"), time.Now())
	require.NoError(t, err)

	// 100000 - 10*268.89 = 97311.10
	assert.True(t, state.Account.Balance.Equal(decimal.RequireFromString("97311.1")),
		"balance = %s", state.Account.Balance)

	h, ok := state.Holding("AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(10), h.Quantity)
	assert.True(t, h.AvgPrice.Equal(decimal.RequireFromString("268.89")))
	assert.False(t, h.FirstBought.IsZero())
}

func TestAccountState_Buy_MergesWeightedAverage(t *testing.T) {
	state := newTestState("100000")

	require.NoError(t, state.Buy("AAPL", 10, decimal.RequireFromString("268.89"), time.Now()))
	require.NoError(t, state.Buy("AAPL", 5, decimal.RequireFromString("270.00"), time.Now()))

	h, ok := state.Holding("AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(15), h.Quantity)

	// (10*268.89 + 5*270.00) / 15 = 269.26
	assert.True(t, h.AvgPrice.Round(2).Equal(decimal.RequireFromString("269.26")),
		"avg price = %s", h.AvgPrice)

	// Only one holding per symbol.
	assert.Len(t, state.Holdings, 1)
}

func TestAccountState_Buy_Validation(t *testing.T) {
	tests := []struct {
		name     string
		quantity int64
		price    string
		wantErr  error
	}{
		{"Zero quantity", 0, "100", ErrInvalidQuantity},
		{"Negative quantity", -5, "100", ErrInvalidQuantity},
		{"Zero price", 1, "0", ErrInvalidPrice},
		{"Negative price", 1, "-10", ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newTestState("1000")

			err := state.Buy("AAPL", tt.quantity, decimal.RequireFromString(tt.price), time.Now())
			assert.ErrorIs(t, err, tt.wantErr)

			// Failed buys leave state untouched.
			assert.True(t, state.Account.Balance.Equal(decimal.RequireFromString("1000")))
			assert.Empty(t, state.Holdings)
		})
	}
}

func TestAccountState_Buy_InsufficientFunds(t *testing.T) {
	state := newTestState("100")

	err := state.Buy("AAPL", 1, decimal.RequireFromString("100.01"), time.Now())
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, state.Account.Balance.Equal(decimal.RequireFromString("100")))
	assert.Empty(t, state.Holdings)

	// Spending the exact balance is allowed.
	err = state.Buy("AAPL", 1, decimal.RequireFromString("100"), time.Now())
	require.NoError(t, err)
	assert.True(t, state.Account.Balance.IsZero())
}

func TestAccountState_Sell_PartialKeepsCostBasis(t *testing.T) {
	state := newTestState("100000")
	require.NoError(t, state.Buy("AAPL", 15, decimal.RequireFromString("269.26"), time.Now()))
	balanceBefore := state.Account.Balance

	err := state.Sell("AAPL", 5, decimal.RequireFromString("275.00"))
	require.NoError(t, err)

	// Balance credited with 5*275.00.
	assert.True(t, state.Account.Balance.Equal(balanceBefore.Add(decimal.RequireFromString("1375"))))

	// Quantity decremented, average price untouched by the sell.
	h, ok := state.Holding("AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(10), h.Quantity)
	assert.True(t, h.AvgPrice.Equal(decimal.RequireFromString("269.26")))
}

func TestAccountState_Sell_ExhaustingRemovesHolding(t *testing.T) {
	state := newTestState("100000")
	require.NoError(t, state.Buy("AAPL", 15, decimal.RequireFromString("269.26"), time.Now()))
	balanceBefore := state.Account.Balance

	err := state.Sell("AAPL", 15, decimal.RequireFromString("275.00"))
	require.NoError(t, err)

	// Balance credited with 15*275.00 = 4125.00.
	assert.True(t, state.Account.Balance.Equal(balanceBefore.Add(decimal.RequireFromString("4125"))))

	// No zero-quantity record is kept.
	_, ok := state.Holding("AAPL")
	assert.False(t, ok)
	assert.Empty(t, state.Holdings)

	// A subsequent sell of the removed symbol fails.
	err = state.Sell("AAPL", 1, decimal.RequireFromString("275.00"))
	assert.ErrorIs(t, err, ErrHoldingNotFound)
}

func TestAccountState_Sell_Errors(t *testing.T) {
	state := newTestState("100000")
	require.NoError(t, state.Buy("AAPL", 10, decimal.RequireFromString("268.89"), time.Now()))
	balanceBefore := state.Account.Balance

	tests := []struct {
		name     string
		symbol   string
		quantity int64
		price    string
		wantErr  error
	}{
		{"Unknown symbol", "TSLA", 1, "100", ErrHoldingNotFound},
		{"More than held", "AAPL", 11, "100", ErrInsufficientShares},
		{"Zero quantity", "AAPL", 0, "100", ErrInvalidQuantity},
		{"Zero price", "AAPL", 1, "0", ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := state.Sell(tt.symbol, tt.quantity, decimal.RequireFromString(tt.price))
			assert.ErrorIs(t, err, tt.wantErr)

			// Failed sells leave state untouched.
			assert.True(t, state.Account.Balance.Equal(balanceBefore))
			h, ok := state.Holding("AAPL")
			require.True(t, ok)
			assert.Equal(t, int64(10), h.Quantity)
		})
	}
}

func TestAccountState_Deposit(t *testing.T) {
	state := newTestState("50")

	require.NoError(t, state.Deposit(decimal.RequireFromString("25.50")))
	assert.True(t, state.Account.Balance.Equal(decimal.RequireFromString("75.5")))

	assert.ErrorIs(t, state.Deposit(decimal.Zero), ErrInvalidAmount)
	assert.ErrorIs(t, state.Deposit(decimal.RequireFromString("-1")), ErrInvalidAmount)
	assert.True(t, state.Account.Balance.Equal(decimal.RequireFromString("75.5")))
}

func TestAccountState_ValueConservation(t *testing.T) {
	start := decimal.RequireFromString("100000")
	state := NewAccountState(uuid.New(), "Conservation", start, time.Now())

	var spent, received, deposited decimal.Decimal

	buy := func(symbol string, qty int64, price string) {
		p := decimal.RequireFromString(price)
		require.NoError(t, state.Buy(symbol, qty, p, time.Now()))
		spent = spent.Add(p.Mul(decimal.NewFromInt(qty)))
	}
	sell := func(symbol string, qty int64, price string) {
		p := decimal.RequireFromString(price)
		require.NoError(t, state.Sell(symbol, qty, p))
		received = received.Add(p.Mul(decimal.NewFromInt(qty)))
	}

	buy("AAPL", 10, "268.89")
	buy("GOOGL", 3, "314.32")
	require.NoError(t, state.Deposit(decimal.RequireFromString("500")))
	deposited = decimal.RequireFromString("500")
	sell("AAPL", 4, "275.00")
	buy("AAPL", 2, "270.10")
	sell("GOOGL", 3, "310.00")

	// balance = start + deposits - spent + received
	want := start.Add(deposited).Sub(spent).Add(received)
	assert.True(t, state.Account.Balance.Equal(want),
		"balance = %s, want %s", state.Account.Balance, want)
}

func TestAccountState_Clone_IsIndependent(t *testing.T) {
	state := newTestState("1000")
	require.NoError(t, state.Buy("AAPL", 2, decimal.RequireFromString("100"), time.Now()))

	snapshot := state.Clone()
	require.NoError(t, state.Sell("AAPL", 2, decimal.RequireFromString("110")))

	h, ok := snapshot.Holding("AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(2), h.Quantity)
}
