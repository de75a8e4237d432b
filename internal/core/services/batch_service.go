package services

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spendsense/persona-engine/internal/core/domain"
	portsrepo "github.com/spendsense/persona-engine/internal/core/ports/repositories"
	portssvc "github.com/spendsense/persona-engine/internal/core/ports/services"
	"github.com/spendsense/persona-engine/internal/dto"
)

// batchService implements the BatchRunnerSvc interface. Per-user
// pipelines share no mutable state, so they fan out over a bounded
// worker pool; only result collection is synchronized.
type batchService struct {
	BaseService
	users       portsrepo.UserReader
	personas    portsrepo.PersonaAssignmentReader
	pipeline    portssvc.PipelineSvc
	concurrency int
}

// NewBatchService creates a new batch runner. Concurrency of zero means
// one worker per core.
func NewBatchService(
	users portsrepo.UserReader,
	personas portsrepo.PersonaAssignmentReader,
	pipeline portssvc.PipelineSvc,
	concurrency int,
) portssvc.BatchRunnerSvc {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &batchService{
		users:       users,
		personas:    personas,
		pipeline:    pipeline,
		concurrency: concurrency,
	}
}

// Ensure batchService implements the BatchRunnerSvc interface
var _ portssvc.BatchRunnerSvc = (*batchService)(nil)

type userOutcome struct {
	result      dto.UserRunResult
	assignments []domain.PersonaAssignment
}

func (s *batchService) Run(ctx context.Context, asOf time.Time, windows []int) (*dto.BatchRunSummary, error) {
	asOf = domain.TruncateToDay(asOf)

	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list users for batch run")
		return nil, err
	}

	summary := &dto.BatchRunSummary{
		RunID:         uuid.NewString(),
		AsOfDate:      asOf,
		Windows:       windows,
		TotalUsers:    len(userIDs),
		PrimaryCounts: make(map[domain.PersonaID]int),
	}

	s.LogInfo(ctx, "Starting batch persona run",
		slog.String("run_id", summary.RunID),
		slog.Int("users", len(userIDs)),
		slog.Any("windows", windows),
		slog.Time("as_of_date", asOf),
		slog.Int("workers", s.concurrency))

	jobs := make(chan string)
	outcomes := make(chan userOutcome)

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range jobs {
				outcomes <- s.runUser(ctx, userID, windows, asOf)
			}
		}()
	}

	go func() {
		for _, userID := range userIDs {
			jobs <- userID
		}
		close(jobs)
		wg.Wait()
		close(outcomes)
	}()

	for outcome := range outcomes {
		summary.Results = append(summary.Results, outcome.result)
		if outcome.result.Succeeded {
			summary.SucceededUsers++
		} else {
			summary.FailedUsers++
		}
		for _, a := range outcome.assignments {
			switch a.Status {
			case domain.StatusAssigned:
				summary.AssignedCount++
				if a.Primary != nil {
					summary.PrimaryCounts[a.Primary.ID]++
				}
			case domain.StatusStable:
				summary.StableCount++
			}
		}
	}

	// Worker completion order is nondeterministic; report in user order.
	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].UserID < summary.Results[j].UserID
	})

	if err := s.verifyCoverage(ctx, summary, userIDs, windows, asOf); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Batch persona run finished",
		slog.String("run_id", summary.RunID),
		slog.Int("succeeded", summary.SucceededUsers),
		slog.Int("failed", summary.FailedUsers),
		slog.Int("assigned", summary.AssignedCount),
		slog.Int("stable", summary.StableCount),
		slog.Float64("coverage_pct", summary.CoveragePct))
	return summary, nil
}

// runUser executes one user's pipeline, converting any failure into a
// recorded result so that one user can never abort the batch.
func (s *batchService) runUser(ctx context.Context, userID string, windows []int, asOf time.Time) userOutcome {
	assignments, err := s.pipeline.RunUser(ctx, userID, windows, asOf)
	if err != nil {
		s.LogError(ctx, err, "User pipeline failed", slog.String("user_id", userID))
		return userOutcome{result: dto.UserRunResult{UserID: userID, Error: err.Error()}}
	}
	return userOutcome{
		result:      dto.UserRunResult{UserID: userID, Succeeded: true},
		assignments: assignments,
	}
}

// verifyCoverage is the batch post-condition: every known user must hold
// exactly one assignment per requested window in the persona store. A
// shortfall is a data-quality failure of the run, reported separately
// from per-user pipeline errors.
func (s *batchService) verifyCoverage(ctx context.Context, summary *dto.BatchRunSummary, userIDs []string, windows []int, asOf time.Time) error {
	counts, err := s.personas.CountAssignmentsByUser(ctx, asOf, windows)
	if err != nil {
		s.LogError(ctx, err, "Failed to verify assignment coverage")
		return err
	}

	covered := 0
	for _, userID := range userIDs {
		if counts[userID] == len(windows) {
			covered++
		} else {
			s.LogWarn(ctx, "User lacks full window coverage",
				slog.String("user_id", userID),
				slog.Int("assignments", counts[userID]),
				slog.Int("expected", len(windows)))
		}
	}

	if len(userIDs) > 0 {
		summary.CoveragePct = float64(covered) / float64(len(userIDs)) * 100
	} else {
		summary.CoveragePct = 100
	}
	summary.CoverageComplete = covered == len(userIDs)
	return nil
}
