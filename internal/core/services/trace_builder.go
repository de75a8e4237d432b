package services

import (
	"fmt"
	"strings"

	"github.com/spendsense/persona-engine/internal/core/domain"
)

const stableReasoning = "No personas matched. User has stable financial behavior."

// buildAuditTrace assembles the write-once trace for one assignment. It
// always carries all five evaluations, matched or not, plus reasoning
// strings for the chosen primary and secondary.
func buildAuditTrace(key domain.FeatureKey, evals []domain.PersonaEvaluation, primary, secondary *domain.PersonaMatch, status domain.AssignmentStatus) domain.AuditTrace {
	trace := domain.AuditTrace{
		UserID:      key.UserID,
		WindowDays:  key.WindowDays,
		AsOfDate:    key.AsOfDate,
		Evaluations: evals,
		Status:      status,
	}

	if status == domain.StatusStable {
		trace.PrimaryReasoning = stableReasoning
		return trace
	}

	if primary != nil {
		trace.PrimaryReasoning = formatReasoning(findEvaluation(evals, primary.ID))
	}
	if secondary != nil {
		trace.SecondaryReasoning = formatReasoning(findEvaluation(evals, secondary.ID))
	}
	return trace
}

func findEvaluation(evals []domain.PersonaEvaluation, id domain.PersonaID) domain.PersonaEvaluation {
	for _, e := range evals {
		if e.PersonaID == id {
			return e
		}
	}
	return domain.PersonaEvaluation{PersonaID: id}
}

// formatReasoning composes the human-readable rationale for a matched
// persona, citing each triggering criterion's value and threshold, e.g.
// "Matched on max_utilization (0.68 vs 0.50 threshold). Severity: 0.680.
// Priority: CRITICAL."
func formatReasoning(eval domain.PersonaEvaluation) string {
	parts := make([]string, 0, len(eval.TriggeredBy))
	for _, trigger := range eval.TriggeredBy {
		for _, c := range eval.Criteria {
			if c.Name != trigger {
				continue
			}
			switch {
			case c.Value != nil && c.Threshold != nil:
				parts = append(parts, fmt.Sprintf("%s (%.4g vs %.4g threshold)", c.Name, *c.Value, *c.Threshold))
			case c.Value != nil:
				parts = append(parts, fmt.Sprintf("%s (%.4g)", c.Name, *c.Value))
			case c.Flag != nil:
				parts = append(parts, fmt.Sprintf("%s (%t)", c.Name, *c.Flag))
			case c.Missing:
				parts = append(parts, fmt.Sprintf("%s (not applicable)", c.Name))
			default:
				parts = append(parts, c.Name)
			}
			break
		}
	}

	triggerText := "criteria met"
	if len(parts) > 0 {
		triggerText = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("Matched on %s. Severity: %.3f. Priority: %s.", triggerText, eval.Severity, eval.Tier)
}
