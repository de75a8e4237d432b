package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spendsense/persona-engine/internal/core/domain"
	portsrepo "github.com/spendsense/persona-engine/internal/core/ports/repositories"
)

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new read-only repository for account snapshots.
func NewAccountRepository(pool *pgxpool.Pool) portsrepo.AccountReader {
	return &accountRepository{pool: pool}
}

// FindAccountsByUserID retrieves all accounts owned by a user.
func (r *accountRepository) FindAccountsByUserID(ctx context.Context, userID string) ([]domain.Account, error) {
	query := `
		SELECT account_id, user_id, account_type, account_subtype, balance_current, balance_available, balance_limit
		FROM accounts
		WHERE user_id = $1
		ORDER BY account_id;
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find accounts for user %s: %w", userID, err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var acc domain.Account
		// balance_limit is NULL for non-credit accounts
		var limit *decimal.Decimal

		if err := rows.Scan(
			&acc.AccountID,
			&acc.UserID,
			&acc.Type,
			&acc.Subtype,
			&acc.BalanceCurrent,
			&acc.BalanceAvailable,
			&limit,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		acc.BalanceLimit = limit
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading account rows: %w", err)
	}
	return accounts, nil
}
