package domain

import (
	"time"
)

// PersonaID identifies one of the five financial-behavior personas.
type PersonaID int

const (
	PersonaHighUtilization   PersonaID = 1
	PersonaVariableIncome    PersonaID = 2
	PersonaSubscriptionHeavy PersonaID = 3
	PersonaSavingsBuilder    PersonaID = 4
	PersonaCashFlowStressed  PersonaID = 5
)

// PriorityTier ranks personas by urgency. Lower value = more urgent.
type PriorityTier int

const (
	TierCritical PriorityTier = 0
	TierHigh     PriorityTier = 1
	TierMedium   PriorityTier = 2
	TierLow      PriorityTier = 3
)

func (t PriorityTier) String() string {
	switch t {
	case TierCritical:
		return "CRITICAL"
	case TierHigh:
		return "HIGH"
	case TierMedium:
		return "MEDIUM"
	case TierLow:
		return "LOW"
	}
	return "UNKNOWN"
}

// PersonaDefinition is the static description of a persona. It is
// configuration, not user data; the predicate and severity functions
// live with the evaluators in the services layer.
type PersonaDefinition struct {
	ID    PersonaID
	Name  string
	Tier  PriorityTier
	Focus string
	Risk  string
}

// PersonaCatalog lists all personas in ascending ID order.
var PersonaCatalog = []PersonaDefinition{
	{
		ID:    PersonaHighUtilization,
		Name:  "High Utilization",
		Tier:  TierCritical,
		Focus: "Reduce utilization and interest; payment planning and autopay education",
		Risk:  "Debt spiral, credit damage, high interest charges",
	},
	{
		ID:    PersonaVariableIncome,
		Name:  "Variable Income Budgeter",
		Tier:  TierHigh,
		Focus: "Percent-based budgets, emergency fund basics, smoothing strategies",
		Risk:  "Income uncertainty plus low buffer leads to payment timing issues",
	},
	{
		ID:    PersonaSubscriptionHeavy,
		Name:  "Subscription-Heavy",
		Tier:  TierMedium,
		Focus: "Subscription audit, cancellation/negotiation tips, bill alerts",
		Risk:  "Money leak, optimization opportunity",
	},
	{
		ID:    PersonaSavingsBuilder,
		Name:  "Savings Builder",
		Tier:  TierLow,
		Focus: "Goal setting, automation, APY optimization (HYSA/CD basics)",
		Risk:  "None - positive trajectory, enrichment only",
	},
	{
		ID:    PersonaCashFlowStressed,
		Name:  "Cash Flow Stressed",
		Tier:  TierHigh,
		Focus: "Paycheck-to-paycheck budgeting, buffer building, expense smoothing, timing strategies",
		Risk:  "Overdraft risk, immediate liquidity crisis",
	},
}

// PersonaByID returns the catalog entry for a persona ID.
func PersonaByID(id PersonaID) (PersonaDefinition, bool) {
	for _, def := range PersonaCatalog {
		if def.ID == id {
			return def, true
		}
	}
	return PersonaDefinition{}, false
}

// PersonaMatch is one persona whose predicate held, with the severity
// used for ranking. Severity is only comparable among personas matched
// in the same run; it is never a cross-run trend.
type PersonaMatch struct {
	ID       PersonaID    `json:"personaID"`
	Name     string       `json:"name"`
	Tier     PriorityTier `json:"tier"`
	Severity float64      `json:"severity"`
}

// AssignmentStatus is the outcome of a persona evaluation run.
type AssignmentStatus string

const (
	// StatusAssigned means at least one persona matched.
	StatusAssigned AssignmentStatus = "ASSIGNED"
	// StatusStable means no persona matched; the user's behavior is stable.
	StatusStable AssignmentStatus = "STABLE"
)

// PersonaAssignment is the final classification result for one
// (user, window, as-of-date) key. Immutable once written.
//
// Invariants:
//   - StatusStable implies Primary and Secondary are nil.
//   - StatusAssigned implies Primary is non-nil; Secondary is non-nil
//     iff at least two personas matched.
type PersonaAssignment struct {
	AssignmentID string           `json:"assignmentID"`
	UserID       string           `json:"userID"`
	WindowDays   int              `json:"windowDays"`
	AsOfDate     time.Time        `json:"asOfDate"`
	Status       AssignmentStatus `json:"status"`
	Primary      *PersonaMatch    `json:"primary"`
	Secondary    *PersonaMatch    `json:"secondary"`
	Trace        AuditTrace       `json:"trace"`
}
