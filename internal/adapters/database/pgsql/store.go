package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/spendsense/persona-engine/internal/core/ports/repositories"
)

// transactionStore bundles the read-only repositories over the raw
// financial records into a single facade.
type transactionStore struct {
	portsrepo.AccountReader
	portsrepo.TransactionReader
	portsrepo.LiabilityReader
}

// NewTransactionStore creates a TransactionStore backed by the pgsql
// account, transaction, and liability repositories.
func NewTransactionStore(pool *pgxpool.Pool) portsrepo.TransactionStore {
	return &transactionStore{
		AccountReader:     NewAccountRepository(pool),
		TransactionReader: NewTransactionRepository(pool),
		LiabilityReader:   NewLiabilityRepository(pool),
	}
}
