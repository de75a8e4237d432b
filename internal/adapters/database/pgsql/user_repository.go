package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/spendsense/persona-engine/internal/core/ports/repositories"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new repository over the known user population.
func NewUserRepository(pool *pgxpool.Pool) portsrepo.UserReader {
	return &userRepository{pool: pool}
}

// ListUserIDs returns every known user ID, ordered for reproducible runs.
func (r *userRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	query := `SELECT user_id FROM users ORDER BY user_id;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list user IDs: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading user rows: %w", err)
	}
	return userIDs, nil
}
