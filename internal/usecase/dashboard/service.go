package dashboard

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Delta200513/InvestBuy/internal/domain"
	"github.com/Delta200513/InvestBuy/internal/usecase/valuation"
)

// SnapshotProvider defines the contract for reading account state.
// Defined here to avoid coupling the dashboard to the ledger package.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, accountID uuid.UUID) (*domain.AccountState, error)
}

// PortfolioView is the valued portfolio for one account: holdings
// joined with live quotes plus the free cash balance.
type PortfolioView struct {
	AccountID        uuid.UUID
	Balance          decimal.Decimal
	Holdings         []valuation.ValuedHolding
	TotalMarketValue decimal.Decimal
	TotalProfit      decimal.Decimal
	ReturnPercent    decimal.Decimal
}

// Service joins ledger snapshots with the quote source to produce
// valued portfolio views. Quote failures degrade to the holding's
// purchase price instead of failing the request.
type Service struct {
	Ledger SnapshotProvider
	Quotes domain.QuoteSource
	log    zerolog.Logger
}

// NewService creates a new dashboard Service instance.
func NewService(ledgerService SnapshotProvider, quotes domain.QuoteSource, log zerolog.Logger) *Service {
	return &Service{
		Ledger: ledgerService,
		Quotes: quotes,
		log:    log.With().Str("service", "dashboard").Logger(),
	}
}

// Portfolio returns the valued portfolio for an account.
func (s *Service) Portfolio(ctx context.Context, accountID uuid.UUID) (*PortfolioView, error) {
	state, err := s.Ledger.Snapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	lookup := func(symbol string) (decimal.Decimal, bool) {
		quote, err := s.Quotes.Quote(ctx, symbol)
		if err != nil {
			if !errors.Is(err, domain.ErrQuoteUnavailable) {
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote lookup failed")
			}
			return decimal.Zero, false
		}
		return quote.Price, true
	}

	result := valuation.Valuate(state.Holdings, lookup)

	return &PortfolioView{
		AccountID:        accountID,
		Balance:          state.Account.Balance.Round(2),
		Holdings:         result.Holdings,
		TotalMarketValue: result.TotalMarketValue,
		TotalProfit:      result.TotalProfit,
		ReturnPercent:    result.ReturnPercent,
	}, nil
}
