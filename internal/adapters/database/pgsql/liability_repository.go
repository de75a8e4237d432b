package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spendsense/persona-engine/internal/core/domain"
	portsrepo "github.com/spendsense/persona-engine/internal/core/ports/repositories"
)

type liabilityRepository struct {
	pool *pgxpool.Pool
}

// NewLiabilityRepository creates a new read-only repository for credit liabilities.
func NewLiabilityRepository(pool *pgxpool.Pool) portsrepo.LiabilityReader {
	return &liabilityRepository{pool: pool}
}

// FindLiabilitiesByUserID retrieves all liabilities attached to a user's credit accounts.
func (r *liabilityRepository) FindLiabilitiesByUserID(ctx context.Context, userID string) ([]domain.Liability, error) {
	query := `
		SELECT account_id, user_id, apr, minimum_payment_amount, last_payment_amount, is_overdue, next_due_date
		FROM liabilities
		WHERE user_id = $1
		ORDER BY account_id;
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find liabilities for user %s: %w", userID, err)
	}
	defer rows.Close()

	var liabilities []domain.Liability
	for rows.Next() {
		var l domain.Liability
		if err := rows.Scan(
			&l.AccountID,
			&l.UserID,
			&l.APR,
			&l.MinimumPaymentAmount,
			&l.LastPaymentAmount,
			&l.IsOverdue,
			&l.NextDueDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan liability row: %w", err)
		}
		liabilities = append(liabilities, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading liability rows: %w", err)
	}
	return liabilities, nil
}
