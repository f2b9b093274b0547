package domain

import "errors"

// Sentinel errors for the portfolio accounting core.
// Callers classify failures with errors.Is; transport adapters map them
// to wire-level status codes.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrHoldingNotFound    = errors.New("holding not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidPrice       = errors.New("price must be positive")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrQuoteUnavailable   = errors.New("quote unavailable")
	ErrStoreUnavailable   = errors.New("ledger store unavailable")
)
