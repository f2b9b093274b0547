package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

// Service maintains the append-only log of completed trades. Records
// are keyed by account, kept in insertion order and never compacted or
// rewritten.
type Service struct {
	repo domain.TransactionRepository
	log  zerolog.Logger
}

// NewService creates a new recorder Service instance.
func NewService(repo domain.TransactionRepository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "recorder").Logger(),
	}
}

// Record appends one trade to the log. An identifier and timestamp are
// assigned when not already set. Well-formed records are never
// rejected.
func (s *Service) Record(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}

	if err := tx.Validate(); err != nil {
		return err
	}

	if err := s.repo.Append(ctx, tx); err != nil {
		return err
	}

	s.log.Debug().
		Str("transaction_id", tx.ID.String()).
		Str("account_id", tx.AccountID.String()).
		Str("side", string(tx.Side)).
		Msg("Transaction recorded")

	return nil
}

// History returns an account's records in the order they were
// recorded. Insertion order equals chronological order per account
// because the ledger serializes trades per account.
func (s *Service) History(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	return s.repo.ListByAccount(ctx, accountID)
}
