// Package memory provides in-memory implementations of the ledger
// store and transaction log. Used in dev mode and in tests, where a
// PostgreSQL instance would be overkill; the original system ran its
// whole ledger out of a single JSON file in much the same spirit.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

// Store implements domain.LedgerStore and domain.TransactionRepository
// backed by process memory. All methods deep-copy state on the way in
// and out, so callers can never alias the stored data.
type Store struct {
	mu           sync.RWMutex
	states       map[uuid.UUID]*domain.AccountState
	transactions map[uuid.UUID][]*domain.Transaction
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		states:       make(map[uuid.UUID]*domain.AccountState),
		transactions: make(map[uuid.UUID][]*domain.Transaction),
	}
}

// Create persists the state of a new account.
func (s *Store) Create(_ context.Context, state *domain.AccountState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[state.Account.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountExists, state.Account.ID)
	}
	s.states[state.Account.ID] = state.Clone()
	return nil
}

// Load retrieves the full state for an account.
func (s *Store) Load(_ context.Context, accountID uuid.UUID) (*domain.AccountState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
	}
	return state.Clone(), nil
}

// Save atomically replaces the stored state for an account.
func (s *Store) Save(_ context.Context, state *domain.AccountState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[state.Account.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, state.Account.ID)
	}
	s.states[state.Account.ID] = state.Clone()
	return nil
}

// CountAccounts returns the number of stored accounts.
func (s *Store) CountAccounts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states), nil
}

// Append adds one trade record to the log.
func (s *Store) Append(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := *tx
	s.transactions[tx.AccountID] = append(s.transactions[tx.AccountID], &record)
	return nil
}

// ListByAccount returns an account's records in insertion order.
func (s *Store) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.transactions[accountID]
	out := make([]*domain.Transaction, len(log))
	for i, tx := range log {
		record := *tx
		out[i] = &record
	}
	return out, nil
}
