package repositories

import (
	"context"
	"time"

	"github.com/spendsense/persona-engine/internal/core/domain"
)

// UserReader defines read operations over the known user population.
type UserReader interface {
	// ListUserIDs returns every known user ID in stable order.
	ListUserIDs(ctx context.Context) ([]string, error)
}

// AccountReader defines read operations for account snapshots.
type AccountReader interface {
	// FindAccountsByUserID retrieves all accounts owned by a user.
	FindAccountsByUserID(ctx context.Context, userID string) ([]domain.Account, error)
}

// TransactionReader defines read operations for transaction history.
type TransactionReader interface {
	// FindTransactionsByUserID retrieves all of a user's transactions with
	// from < date <= to (half-open range matching domain.Window).
	FindTransactionsByUserID(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error)
}

// LiabilityReader defines read operations for credit liabilities.
type LiabilityReader interface {
	// FindLiabilitiesByUserID retrieves all liabilities attached to a user's
	// credit accounts.
	FindLiabilitiesByUserID(ctx context.Context, userID string) ([]domain.Liability, error)
}

// TransactionStore is the read-only contract to the external store of
// raw financial records. All reads return immutable snapshots.
type TransactionStore interface {
	AccountReader
	TransactionReader
	LiabilityReader
}
