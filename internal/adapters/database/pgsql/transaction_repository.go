package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spendsense/persona-engine/internal/core/domain"
	portsrepo "github.com/spendsense/persona-engine/internal/core/ports/repositories"
)

type transactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new read-only repository for transaction history.
func NewTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionReader {
	return &transactionRepository{pool: pool}
}

// FindTransactionsByUserID retrieves a user's transactions in the
// half-open range from < date <= to, ordered by date then ID so that
// downstream replay is reproducible.
func (r *transactionRepository) FindTransactionsByUserID(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT transaction_id, account_id, user_id, date, amount, merchant_name,
		       category_primary, category_detailed, channel, pending
		FROM transactions
		WHERE user_id = $1 AND date > $2 AND date <= $3
		ORDER BY date, transaction_id;
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to find transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		if err := rows.Scan(
			&txn.TransactionID,
			&txn.AccountID,
			&txn.UserID,
			&txn.Date,
			&txn.Amount,
			&txn.MerchantName,
			&txn.CategoryPrimary,
			&txn.CategoryDetailed,
			&txn.Channel,
			&txn.Pending,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txn.Date = domain.TruncateToDay(txn.Date)
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading transaction rows: %w", err)
	}
	return transactions, nil
}
