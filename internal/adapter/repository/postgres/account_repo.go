package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

// accountRepository implements domain.LedgerStore on PostgreSQL.
// Save replaces the account row and its holdings inside one database
// transaction, which gives the atomic per-account save the ledger
// relies on.
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.LedgerStore {
	return &accountRepository{db: db}
}

// Create persists a new account and its (empty) holding set
func (r *accountRepository) Create(ctx context.Context, state *domain.AccountState) error {
	query := `
		INSERT INTO accounts (id, name, balance, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		state.Account.ID,
		state.Account.Name,
		state.Account.Balance.String(),
		state.Account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrAccountExists, state.Account.ID)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// Load retrieves the full account state (account row plus holdings)
func (r *accountRepository) Load(ctx context.Context, accountID uuid.UUID) (*domain.AccountState, error) {
	accountQuery := `
		SELECT id, name, balance, created_at
		FROM accounts
		WHERE id = $1
	`

	var state domain.AccountState
	var balanceStr string

	err := r.db.QueryRowContext(ctx, accountQuery, accountID).Scan(
		&state.Account.ID,
		&state.Account.Name,
		&balanceStr,
		&state.Account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	state.Account.Balance = balance

	holdingsQuery := `
		SELECT symbol, quantity, avg_price, first_bought
		FROM holdings
		WHERE account_id = $1
		ORDER BY first_bought
	`

	rows, err := r.db.QueryContext(ctx, holdingsQuery, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h domain.Holding
		var avgPriceStr string

		if err := rows.Scan(&h.Symbol, &h.Quantity, &avgPriceStr, &h.FirstBought); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		avgPrice, err := decimal.NewFromString(avgPriceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse avg_price: %w", err)
		}
		h.AvgPrice = avgPrice

		state.Holdings = append(state.Holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return &state, nil
}

// Save atomically replaces the stored state for an account
func (r *accountRepository) Save(ctx context.Context, state *domain.AccountState) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1 WHERE id = $2`,
		state.Account.Balance.String(),
		state.Account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, state.Account.ID)
	}

	// Replace the holding set wholesale; the set is small (one row per
	// distinct symbol) and this keeps zero-quantity rows impossible.
	if _, err := dbTx.ExecContext(ctx,
		`DELETE FROM holdings WHERE account_id = $1`,
		state.Account.ID,
	); err != nil {
		return fmt.Errorf("failed to clear holdings: %w", err)
	}

	insertQuery := `
		INSERT INTO holdings (account_id, symbol, quantity, avg_price, first_bought)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, h := range state.Holdings {
		if _, err := dbTx.ExecContext(ctx, insertQuery,
			state.Account.ID,
			h.Symbol,
			h.Quantity,
			h.AvgPrice.String(),
			h.FirstBought,
		); err != nil {
			return fmt.Errorf("failed to insert holding: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit account state: %w", err)
	}

	return nil
}

// CountAccounts returns the number of stored accounts
func (r *accountRepository) CountAccounts(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

// isUniqueViolation reports whether err is a unique-constraint error
// from the postgres driver (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	type sqlStater interface {
		SQLState() string
	}
	var state sqlStater
	if errors.As(err, &state) {
		return state.SQLState() == "23505"
	}
	return false
}
