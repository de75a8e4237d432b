package services

import (
	"context"
	"time"

	"github.com/spendsense/persona-engine/internal/core/domain"
	"github.com/spendsense/persona-engine/internal/dto"
)

// FeatureComputeSvc defines computation of all five signal feature
// records for one user and one reporting window. Pure over the provided
// records; performs no I/O.
type FeatureComputeSvc interface {
	// ComputeFeatureSet computes subscription, savings, credit, income and
	// cash-flow features for the given window.
	ComputeFeatureSet(ctx context.Context, records domain.UserRecords, windowDays int, asOf time.Time) (*domain.FeatureSet, error)
}

// PersonaAssignerSvc defines the classification of a feature set into a
// persona assignment with a full audit trace. Pure and deterministic:
// the same feature set always yields the same assignment.
type PersonaAssignerSvc interface {
	AssignPersonas(ctx context.Context, features domain.FeatureSet) (*domain.PersonaAssignment, error)
}

// PipelineSvc defines the per-user pipeline: fetch records, compute and
// persist features, assign and persist personas for every requested
// window. All I/O happens at entry and exit.
type PipelineSvc interface {
	// RunUser returns the assignments produced for the user, one per window.
	RunUser(ctx context.Context, userID string, windows []int, asOf time.Time) ([]domain.PersonaAssignment, error)
}

// BatchRunnerSvc defines the batch entry point over all known users.
type BatchRunnerSvc interface {
	// Run computes assignments for every known user and window. Per-user
	// failures are recorded in the summary, never aborting the batch.
	Run(ctx context.Context, asOf time.Time, windows []int) (*dto.BatchRunSummary, error)
}

// ServiceContainer holds instances of all the application services.
type ServiceContainer struct {
	Features FeatureComputeSvc
	Assigner PersonaAssignerSvc
	Pipeline PipelineSvc
	Batch    BatchRunnerSvc
}
