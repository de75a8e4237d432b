package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spendsense/persona-engine/internal/core/domain"
	portsrepo "github.com/spendsense/persona-engine/internal/core/ports/repositories"
	portssvc "github.com/spendsense/persona-engine/internal/core/ports/services"
	"github.com/spendsense/persona-engine/pkg/config"
)

// pipelineService implements the PipelineSvc interface: one user's full
// computation across all requested windows. All store I/O happens here,
// batched at entry (reads) and exit (writes); the detectors and the
// assigner in between are pure.
type pipelineService struct {
	BaseService
	store    portsrepo.TransactionStore
	features portsrepo.FeatureWriter
	personas portsrepo.PersonaAssignmentWriter
	compute  portssvc.FeatureComputeSvc
	assigner portssvc.PersonaAssignerSvc
	signals  config.SignalParams
}

// NewPipelineService creates a new per-user pipeline service.
func NewPipelineService(
	store portsrepo.TransactionStore,
	features portsrepo.FeatureWriter,
	personas portsrepo.PersonaAssignmentWriter,
	compute portssvc.FeatureComputeSvc,
	assigner portssvc.PersonaAssignerSvc,
	signals config.SignalParams,
) portssvc.PipelineSvc {
	return &pipelineService{
		store:    store,
		features: features,
		personas: personas,
		compute:  compute,
		assigner: assigner,
		signals:  signals,
	}
}

// Ensure pipelineService implements the PipelineSvc interface
var _ portssvc.PipelineSvc = (*pipelineService)(nil)

func (s *pipelineService) RunUser(ctx context.Context, userID string, windows []int, asOf time.Time) ([]domain.PersonaAssignment, error) {
	records, err := s.fetchRecords(ctx, userID, windows, asOf)
	if err != nil {
		return nil, err
	}

	assignments := make([]domain.PersonaAssignment, 0, len(windows))
	for _, windowDays := range windows {
		set, err := s.compute.ComputeFeatureSet(ctx, records, windowDays, asOf)
		if err != nil {
			return nil, fmt.Errorf("compute features for window %d: %w", windowDays, err)
		}

		if err := s.persistFeatures(ctx, set); err != nil {
			return nil, fmt.Errorf("persist features for window %d: %w", windowDays, err)
		}

		assignment, err := s.assigner.AssignPersonas(ctx, *set)
		if err != nil {
			return nil, fmt.Errorf("assign personas for window %d: %w", windowDays, err)
		}

		if err := s.personas.UpsertPersonaAssignment(ctx, *assignment); err != nil {
			return nil, fmt.Errorf("persist assignment for window %d: %w", windowDays, err)
		}
		assignments = append(assignments, *assignment)
	}

	s.LogDebug(ctx, "User pipeline completed",
		slog.String("user_id", userID),
		slog.Int("windows", len(windows)))
	return assignments, nil
}

// fetchRecords reads the user's accounts, liabilities and transactions
// once, covering the longest reporting window plus the subscription
// lookback.
func (s *pipelineService) fetchRecords(ctx context.Context, userID string, windows []int, asOf time.Time) (domain.UserRecords, error) {
	lookbackDays := s.signals.SubscriptionLookbackDays
	for _, w := range windows {
		if w > lookbackDays {
			lookbackDays = w
		}
	}

	to := domain.TruncateToDay(asOf)
	from := to.AddDate(0, 0, -lookbackDays)

	accounts, err := s.store.FindAccountsByUserID(ctx, userID)
	if err != nil {
		return domain.UserRecords{}, fmt.Errorf("fetch accounts for user %s: %w", userID, err)
	}

	transactions, err := s.store.FindTransactionsByUserID(ctx, userID, from, to)
	if err != nil {
		return domain.UserRecords{}, fmt.Errorf("fetch transactions for user %s: %w", userID, err)
	}

	liabilities, err := s.store.FindLiabilitiesByUserID(ctx, userID)
	if err != nil {
		return domain.UserRecords{}, fmt.Errorf("fetch liabilities for user %s: %w", userID, err)
	}

	return domain.UserRecords{
		UserID:       userID,
		Accounts:     accounts,
		Transactions: transactions,
		Liabilities:  liabilities,
	}, nil
}

func (s *pipelineService) persistFeatures(ctx context.Context, set *domain.FeatureSet) error {
	if err := s.features.UpsertSubscriptionFeatures(ctx, set.Subscriptions); err != nil {
		return err
	}
	if err := s.features.UpsertSavingsFeatures(ctx, set.Savings); err != nil {
		return err
	}
	if err := s.features.UpsertCreditFeatures(ctx, set.Credit); err != nil {
		return err
	}
	if err := s.features.UpsertIncomeFeatures(ctx, set.Income); err != nil {
		return err
	}
	return s.features.UpsertCashFlowFeatures(ctx, set.CashFlow)
}
