package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

// DemoAccountID is the fixed identifier of the seeded demo account, so
// a fresh dev environment always has a known account to poke at.
var DemoAccountID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// DemoSeeder ensures the demo account exists on startup. Intended for
// dev mode, where the in-memory store starts empty on every boot.
type DemoSeeder struct {
	store           domain.LedgerStore
	startingBalance decimal.Decimal
	log             zerolog.Logger
}

// NewDemoSeeder creates a new DemoSeeder instance.
func NewDemoSeeder(store domain.LedgerStore, startingBalance decimal.Decimal, log zerolog.Logger) *DemoSeeder {
	return &DemoSeeder{
		store:           store,
		startingBalance: startingBalance,
		log:             log.With().Str("service", "seeder").Logger(),
	}
}

// Seed creates the demo account if it does not exist yet.
func (s *DemoSeeder) Seed(ctx context.Context) error {
	_, err := s.store.Load(ctx, DemoAccountID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}

	state := domain.NewAccountState(DemoAccountID, "Demo Account", s.startingBalance, time.Now().UTC())

	if err := state.Account.Validate(); err != nil {
		return err
	}

	if err := s.store.Create(ctx, state); err != nil {
		return err
	}

	s.log.Info().
		Str("account_id", DemoAccountID.String()).
		Msg("Demo account seeded")

	return nil
}
