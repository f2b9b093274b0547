package registration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

// Service creates new trading accounts. Every account starts with the
// configured virtual cash balance and an empty holding set.
type Service struct {
	store           domain.LedgerStore
	startingBalance decimal.Decimal
	log             zerolog.Logger
}

// NewService creates a new registration Service instance.
func NewService(store domain.LedgerStore, startingBalance decimal.Decimal, log zerolog.Logger) *Service {
	return &Service{
		store:           store,
		startingBalance: startingBalance,
		log:             log.With().Str("service", "registration").Logger(),
	}
}

// Register creates an account with the starting balance and persists
// it. The name is a display label only; identity is the generated ID.
func (s *Service) Register(ctx context.Context, name string) (*domain.Account, error) {
	if name == "" {
		return nil, errors.New("account name cannot be empty")
	}

	state := domain.NewAccountState(uuid.New(), name, s.startingBalance, time.Now().UTC())

	if err := state.Account.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, state); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("account_id", state.Account.ID.String()).
		Str("starting_balance", s.startingBalance.String()).
		Msg("Account registered")

	account := state.Account
	return &account, nil
}
