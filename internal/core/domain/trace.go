package domain

import "time"

// CriterionResult records one sub-condition of a persona predicate with
// the cited value and the threshold it was compared against. Numeric and
// boolean citations are kept as explicit optionals; a nil field means
// the criterion does not use that kind of value, and Missing marks a
// cited value that was absent from the features (e.g. no credit cards).
type CriterionResult struct {
	Name      string   `json:"name"`
	Value     *float64 `json:"value,omitempty"`
	Flag      *bool    `json:"flag,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Missing   bool     `json:"missing,omitempty"`
	Satisfied bool     `json:"satisfied"`
}

// PersonaEvaluation is the audit record of one persona's evaluation,
// produced for every persona whether or not it matched.
type PersonaEvaluation struct {
	PersonaID   PersonaID         `json:"personaID"`
	Name        string            `json:"name"`
	Tier        PriorityTier      `json:"tier"`
	Matched     bool              `json:"matched"`
	Severity    float64           `json:"severity"`
	Criteria    []CriterionResult `json:"criteria"`
	TriggeredBy []string          `json:"triggeredBy,omitempty"`
}

// AuditTrace is the complete, write-once evaluation record attached to a
// persona assignment. It always carries one evaluation per persona and,
// when an assignment was made, human-readable reasoning for the chosen
// primary and secondary.
type AuditTrace struct {
	UserID             string              `json:"userID"`
	WindowDays         int                 `json:"windowDays"`
	AsOfDate           time.Time           `json:"asOfDate"`
	Evaluations        []PersonaEvaluation `json:"evaluations"`
	Status             AssignmentStatus    `json:"status"`
	PrimaryReasoning   string              `json:"primaryReasoning,omitempty"`
	SecondaryReasoning string              `json:"secondaryReasoning,omitempty"`
}
