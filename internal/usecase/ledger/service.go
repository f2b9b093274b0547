package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

// TradeRecorder defines the contract for emitting audit records of
// completed trades. Defined here to avoid coupling the ledger to the
// recorder package.
type TradeRecorder interface {
	Record(ctx context.Context, tx *domain.Transaction) error
}

// Service enforces the conservation and non-negativity invariants for
// account cash and holdings. Every mutating operation is a
// read-modify-write against the LedgerStore, serialized per account by
// a lock table so that check-then-act sequences (funds check, shares
// check) cannot race. Operations on different accounts proceed in
// parallel.
//
// Persistence policy: the stored state is authoritative. The new state
// is persisted inside the per-account critical section; if Save fails
// the operation did not happen and ErrStoreUnavailable is returned.
type Service struct {
	store    domain.LedgerStore
	recorder TradeRecorder
	log      zerolog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewService creates a new ledger Service instance.
func NewService(store domain.LedgerStore, recorder TradeRecorder, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		log:      log.With().Str("service", "ledger").Logger(),
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing operations on one account.
func (s *Service) lockFor(accountID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[accountID] = l
	}
	return l
}

// Deposit increases an account's cash balance and returns the updated
// balance. Amount must be positive.
func (s *Service) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	lock := s.lockFor(accountID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.store.Load(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := state.Deposit(amount); err != nil {
		return decimal.Zero, err
	}

	if err := s.save(ctx, state); err != nil {
		return decimal.Zero, err
	}

	s.log.Info().
		Str("account_id", accountID.String()).
		Str("amount", amount.String()).
		Msg("Deposit applied")

	return state.Account.Balance, nil
}

// Buy executes an immediate, fully-filled purchase at the given price
// and returns the updated balance. On success a BUY transaction record
// is emitted.
func (s *Service) Buy(ctx context.Context, accountID uuid.UUID, symbol string, quantity int64, price decimal.Decimal) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrInvalidPrice
	}

	lock := s.lockFor(accountID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.store.Load(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := state.Buy(symbol, quantity, price, time.Now().UTC()); err != nil {
		return decimal.Zero, err
	}

	if err := s.save(ctx, state); err != nil {
		return decimal.Zero, err
	}

	s.emitRecord(ctx, accountID, symbol, quantity, price, domain.SideBuy)

	s.log.Info().
		Str("account_id", accountID.String()).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Str("price", price.String()).
		Msg("Buy executed")

	return state.Account.Balance, nil
}

// Sell executes an immediate, fully-filled sale at the given price and
// returns the updated balance. Selling the entire position removes the
// holding. On success a SELL transaction record is emitted.
func (s *Service) Sell(ctx context.Context, accountID uuid.UUID, symbol string, quantity int64, price decimal.Decimal) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrInvalidPrice
	}

	lock := s.lockFor(accountID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.store.Load(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := state.Sell(symbol, quantity, price); err != nil {
		return decimal.Zero, err
	}

	if err := s.save(ctx, state); err != nil {
		return decimal.Zero, err
	}

	s.emitRecord(ctx, accountID, symbol, quantity, price, domain.SideSell)

	s.log.Info().
		Str("account_id", accountID.String()).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Str("price", price.String()).
		Msg("Sell executed")

	return state.Account.Balance, nil
}

// Holdings returns a read-only snapshot of the account's holding set.
func (s *Service) Holdings(ctx context.Context, accountID uuid.UUID) ([]domain.Holding, error) {
	state, err := s.Snapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return state.Holdings, nil
}

// Snapshot returns a copy of the full account state (balance plus
// holdings). Mutating the returned value does not affect stored state.
func (s *Service) Snapshot(ctx context.Context, accountID uuid.UUID) (*domain.AccountState, error) {
	state, err := s.store.Load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// save persists the mutated state, mapping store failures to
// ErrStoreUnavailable. The caller discards the state on error, so a
// failed save never leaves in-memory and durable state diverged.
func (s *Service) save(ctx context.Context, state *domain.AccountState) error {
	if err := s.store.Save(ctx, state); err != nil {
		s.log.Error().Err(err).
			Str("account_id", state.Account.ID.String()).
			Msg("Failed to persist account state")
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// emitRecord hands the completed trade to the recorder. The trade has
// already been persisted at this point; a recorder failure is logged
// and does not fail the trade.
func (s *Service) emitRecord(ctx context.Context, accountID uuid.UUID, symbol string, quantity int64, price decimal.Decimal, side domain.Side) {
	tx := &domain.Transaction{
		AccountID: accountID,
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     price,
		Side:      side,
	}

	if err := s.recorder.Record(ctx, tx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error().Err(err).
			Str("account_id", accountID.String()).
			Str("symbol", symbol).
			Msg("Failed to record transaction")
	}
}
