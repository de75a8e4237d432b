package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spendsense/persona-engine/internal/apperrors"
	"github.com/spendsense/persona-engine/internal/core/domain"
	portsrepo "github.com/spendsense/persona-engine/internal/core/ports/repositories"
)

type personaRepository struct {
	pool *pgxpool.Pool
}

// NewPersonaRepository creates a new repository for persona assignments.
func NewPersonaRepository(pool *pgxpool.Pool) portsrepo.PersonaRepositoryFacade {
	return &personaRepository{pool: pool}
}

// UpsertPersonaAssignment persists an assignment with its audit trace.
// The trace is serialized to JSONB only here; everything upstream works
// on the typed structs.
func (r *personaRepository) UpsertPersonaAssignment(ctx context.Context, assignment domain.PersonaAssignment) error {
	trace, err := json.Marshal(assignment.Trace)
	if err != nil {
		return fmt.Errorf("failed to marshal audit trace: %w", err)
	}

	var primaryID, secondaryID *int
	var primaryName, secondaryName, primaryTier, secondaryTier *string
	var primarySeverity, secondarySeverity *float64
	if assignment.Primary != nil {
		id := int(assignment.Primary.ID)
		name := assignment.Primary.Name
		tier := assignment.Primary.Tier.String()
		primaryID, primaryName, primaryTier = &id, &name, &tier
		primarySeverity = &assignment.Primary.Severity
	}
	if assignment.Secondary != nil {
		id := int(assignment.Secondary.ID)
		name := assignment.Secondary.Name
		tier := assignment.Secondary.Tier.String()
		secondaryID, secondaryName, secondaryTier = &id, &name, &tier
		secondarySeverity = &assignment.Secondary.Severity
	}

	query := `
		INSERT INTO persona_assignments (
			assignment_id, user_id, window_days, as_of_date,
			primary_persona_id, primary_persona_name, primary_priority, primary_severity,
			secondary_persona_id, secondary_persona_name, secondary_priority, secondary_severity,
			status, assignment_trace, computed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
		ON CONFLICT (user_id, window_days, as_of_date)
		DO UPDATE SET
			assignment_id = EXCLUDED.assignment_id,
			primary_persona_id = EXCLUDED.primary_persona_id,
			primary_persona_name = EXCLUDED.primary_persona_name,
			primary_priority = EXCLUDED.primary_priority,
			primary_severity = EXCLUDED.primary_severity,
			secondary_persona_id = EXCLUDED.secondary_persona_id,
			secondary_persona_name = EXCLUDED.secondary_persona_name,
			secondary_priority = EXCLUDED.secondary_priority,
			secondary_severity = EXCLUDED.secondary_severity,
			status = EXCLUDED.status,
			assignment_trace = EXCLUDED.assignment_trace;
	`

	_, err = r.pool.Exec(ctx, query,
		assignment.AssignmentID,
		assignment.UserID,
		assignment.WindowDays,
		assignment.AsOfDate,
		primaryID, primaryName, primaryTier, primarySeverity,
		secondaryID, secondaryName, secondaryTier, secondarySeverity,
		string(assignment.Status),
		trace,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert assignment for user %s: %w", assignment.UserID, err)
	}
	return nil
}

// FindPersonaAssignment retrieves the assignment for one key.
func (r *personaRepository) FindPersonaAssignment(ctx context.Context, userID string, windowDays int, asOfDate time.Time) (*domain.PersonaAssignment, error) {
	query := `
		SELECT assignment_id, user_id, window_days, as_of_date, status, assignment_trace,
		       primary_persona_id, primary_persona_name, primary_priority, primary_severity,
		       secondary_persona_id, secondary_persona_name, secondary_priority, secondary_severity
		FROM persona_assignments
		WHERE user_id = $1 AND window_days = $2 AND as_of_date = $3;
	`

	var a domain.PersonaAssignment
	var trace []byte
	var primaryID, secondaryID *int
	var primaryName, secondaryName, primaryTier, secondaryTier *string
	var primarySeverity, secondarySeverity *float64

	err := r.pool.QueryRow(ctx, query, userID, windowDays, asOfDate).Scan(
		&a.AssignmentID,
		&a.UserID,
		&a.WindowDays,
		&a.AsOfDate,
		&a.Status,
		&trace,
		&primaryID, &primaryName, &primaryTier, &primarySeverity,
		&secondaryID, &secondaryName, &secondaryTier, &secondarySeverity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find assignment for user %s: %w", userID, err)
	}

	if err := json.Unmarshal(trace, &a.Trace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit trace: %w", err)
	}

	a.Primary = matchFromColumns(primaryID, primaryName, primarySeverity)
	a.Secondary = matchFromColumns(secondaryID, secondaryName, secondarySeverity)
	return &a, nil
}

func matchFromColumns(id *int, name *string, severity *float64) *domain.PersonaMatch {
	if id == nil {
		return nil
	}
	match := &domain.PersonaMatch{ID: domain.PersonaID(*id)}
	if def, ok := domain.PersonaByID(match.ID); ok {
		match.Tier = def.Tier
	}
	if name != nil {
		match.Name = *name
	}
	if severity != nil {
		match.Severity = *severity
	}
	return match
}

// CountAssignmentsByUser returns, per user, how many of the given
// windows hold an assignment for the as-of date. Used for the batch
// coverage post-condition.
func (r *personaRepository) CountAssignmentsByUser(ctx context.Context, asOfDate time.Time, windows []int) (map[string]int, error) {
	query := `
		SELECT user_id, COUNT(*)
		FROM persona_assignments
		WHERE as_of_date = $1 AND window_days = ANY($2)
		GROUP BY user_id;
	`

	rows, err := r.pool.Query(ctx, query, asOfDate, windows)
	if err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var userID string
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan assignment count: %w", err)
		}
		counts[userID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading assignment counts: %w", err)
	}
	return counts, nil
}
