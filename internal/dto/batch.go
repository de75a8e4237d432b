package dto

import (
	"time"

	"github.com/spendsense/persona-engine/internal/core/domain"
)

// UserRunResult reports the outcome of one user's pipeline run.
type UserRunResult struct {
	UserID    string `json:"userID"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// BatchRunSummary reports the outcome of a full batch run across all
// known users and windows.
type BatchRunSummary struct {
	RunID    string    `json:"runID"`
	AsOfDate time.Time `json:"asOfDate"`
	Windows  []int     `json:"windows"`

	TotalUsers     int             `json:"totalUsers"`
	SucceededUsers int             `json:"succeededUsers"`
	FailedUsers    int             `json:"failedUsers"`
	Results        []UserRunResult `json:"results"`

	AssignedCount int                      `json:"assignedCount"`
	StableCount   int                      `json:"stableCount"`
	PrimaryCounts map[domain.PersonaID]int `json:"primaryCounts"`

	// CoveragePct is the share of known users holding an assignment for
	// every requested window after the run. Verified against the persona
	// store, not inferred from in-memory results.
	CoveragePct      float64 `json:"coveragePct"`
	CoverageComplete bool    `json:"coverageComplete"`
}
