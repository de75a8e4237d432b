package repositories

import (
	"context"
	"time"

	"github.com/spendsense/persona-engine/internal/core/domain"
)

// PersonaAssignmentWriter defines write operations for assignments.
type PersonaAssignmentWriter interface {
	// UpsertPersonaAssignment persists an assignment keyed by
	// (user_id, window_days, as_of_date). Idempotent.
	UpsertPersonaAssignment(ctx context.Context, assignment domain.PersonaAssignment) error
}

// PersonaAssignmentReader defines read operations for assignments, used
// by downstream consumers and by the batch coverage check.
type PersonaAssignmentReader interface {
	// FindPersonaAssignment retrieves the assignment for one key.
	// Returns apperrors.ErrNotFound if none exists.
	FindPersonaAssignment(ctx context.Context, userID string, windowDays int, asOfDate time.Time) (*domain.PersonaAssignment, error)

	// CountAssignmentsByUser returns, per user ID, how many of the given
	// windows have an assignment for the as-of date.
	CountAssignmentsByUser(ctx context.Context, asOfDate time.Time, windows []int) (map[string]int, error)
}

// PersonaRepositoryFacade combines assignment read and write operations.
type PersonaRepositoryFacade interface {
	PersonaAssignmentWriter
	PersonaAssignmentReader
}
