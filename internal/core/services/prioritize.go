package services

import (
	"sort"

	"github.com/spendsense/persona-engine/internal/core/domain"
)

// sortMatches ranks matched personas by priority tier ascending, then
// severity descending, then persona ID ascending as the stable final
// tiebreak. The input is copied; ranking never depends on upstream
// iteration order.
func sortMatches(matches []domain.PersonaMatch) []domain.PersonaMatch {
	ranked := make([]domain.PersonaMatch, len(matches))
	copy(ranked, matches)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.ID < b.ID
	})
	return ranked
}

// selectPrimarySecondary derives the primary and secondary assignment
// from the ranked matches. Either can be nil.
func selectPrimarySecondary(ranked []domain.PersonaMatch) (primary, secondary *domain.PersonaMatch) {
	if len(ranked) > 0 {
		primary = &ranked[0]
	}
	if len(ranked) > 1 {
		secondary = &ranked[1]
	}
	return primary, secondary
}
