package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/spendsense/persona-engine/internal/core/domain"
	portssvc "github.com/spendsense/persona-engine/internal/core/ports/services"
	"github.com/spendsense/persona-engine/pkg/config"
)

// assignmentNamespace seeds deterministic (v5) assignment IDs so that
// re-running the same (user, window, as-of-date) yields a byte-identical
// assignment record.
var assignmentNamespace = uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")

// personaService implements the PersonaAssignerSvc interface.
type personaService struct {
	BaseService
	thresholds config.PersonaThresholds
}

// NewPersonaService creates a new persona assignment service.
func NewPersonaService(thresholds config.PersonaThresholds) portssvc.PersonaAssignerSvc {
	return &personaService{thresholds: thresholds}
}

// Ensure personaService implements the PersonaAssignerSvc interface
var _ portssvc.PersonaAssignerSvc = (*personaService)(nil)

// AssignPersonas evaluates all five personas over the feature set,
// ranks the matches and derives the assignment. Deterministic: the same
// feature set always produces the same assignment, trace included.
func (s *personaService) AssignPersonas(ctx context.Context, features domain.FeatureSet) (*domain.PersonaAssignment, error) {
	key := features.Subscriptions.FeatureKey
	if key.UserID == "" {
		return nil, fmt.Errorf("feature set has no user ID")
	}

	evals := evaluateAllPersonas(features, s.thresholds)

	var matches []domain.PersonaMatch
	for _, eval := range evals {
		if eval.Matched {
			matches = append(matches, domain.PersonaMatch{
				ID:       eval.PersonaID,
				Name:     eval.Name,
				Tier:     eval.Tier,
				Severity: eval.Severity,
			})
		}
	}

	status := domain.StatusAssigned
	if len(matches) == 0 {
		status = domain.StatusStable
	}

	ranked := sortMatches(matches)
	primary, secondary := selectPrimarySecondary(ranked)

	assignment := &domain.PersonaAssignment{
		AssignmentID: deterministicAssignmentID(key),
		UserID:       key.UserID,
		WindowDays:   key.WindowDays,
		AsOfDate:     key.AsOfDate,
		Status:       status,
		Primary:      primary,
		Secondary:    secondary,
		Trace:        buildAuditTrace(key, evals, primary, secondary, status),
	}

	if primary != nil {
		s.LogInfo(ctx, "Persona assigned",
			slog.String("user_id", key.UserID),
			slog.Int("window_days", key.WindowDays),
			slog.Int("primary_persona", int(primary.ID)),
			slog.Float64("severity", primary.Severity))
	} else {
		s.LogInfo(ctx, "User stable, no persona matched",
			slog.String("user_id", key.UserID),
			slog.Int("window_days", key.WindowDays))
	}

	return assignment, nil
}

func deterministicAssignmentID(key domain.FeatureKey) string {
	name := fmt.Sprintf("%s|%d|%s", key.UserID, key.WindowDays, key.AsOfDate.Format("2006-01-02"))
	return uuid.NewSHA1(assignmentNamespace, []byte(name)).String()
}
