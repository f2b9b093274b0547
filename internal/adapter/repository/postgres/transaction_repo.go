package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

// transactionRepository implements domain.TransactionRepository.
// The seq column is a BIGSERIAL, so insertion order is preserved even
// when two records carry the same timestamp.
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// Append adds one trade record to the log
func (r *transactionRepository) Append(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, symbol, quantity, price, side, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.AccountID,
		tx.Symbol,
		tx.Quantity,
		tx.Price.String(),
		string(tx.Side),
		tx.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// ListByAccount returns an account's records in insertion order
func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT id, account_id, symbol, quantity, price, side, date
		FROM transactions
		WHERE account_id = $1
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var priceStr string
		var side string

		if err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.Symbol,
			&tx.Quantity,
			&priceStr,
			&side,
			&tx.Date,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}
		tx.Price = price
		tx.Side = domain.Side(side)

		transactions = append(transactions, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
