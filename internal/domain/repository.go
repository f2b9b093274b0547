package domain

import (
	"context"

	"github.com/google/uuid"
)

// LedgerStore defines the interface for durable account state
// persistence. Implementations must make Save atomic per account: a
// failed save leaves the previously stored state intact.
type LedgerStore interface {
	// Create persists the state of a new account.
	// Returns ErrAccountExists if the account ID is already stored.
	Create(ctx context.Context, state *AccountState) error

	// Load retrieves the full state for an account.
	// Returns ErrAccountNotFound if the account does not exist.
	Load(ctx context.Context, accountID uuid.UUID) (*AccountState, error)

	// Save atomically replaces the stored state for an account.
	Save(ctx context.Context, state *AccountState) error

	// CountAccounts returns the number of stored accounts.
	CountAccounts(ctx context.Context) (int, error)
}

// TransactionRepository defines the interface for the append-only
// trade log. The log is never compacted or rewritten.
type TransactionRepository interface {
	// Append adds one record to the log.
	Append(ctx context.Context, tx *Transaction) error

	// ListByAccount returns an account's records in insertion order.
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Transaction, error)
}

// QuoteSource defines the interface for current market prices.
type QuoteSource interface {
	// Quote returns the current quote for a symbol.
	// Returns ErrQuoteUnavailable if no price can be supplied.
	Quote(ctx context.Context, symbol string) (*Quote, error)

	// Quotes returns current quotes for every symbol the source knows.
	Quotes(ctx context.Context) ([]*Quote, error)
}
