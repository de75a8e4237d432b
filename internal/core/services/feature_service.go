package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/spendsense/persona-engine/internal/core/domain"
	portssvc "github.com/spendsense/persona-engine/internal/core/ports/services"
	"github.com/spendsense/persona-engine/pkg/config"
)

// featureService implements the FeatureComputeSvc interface. Every
// detector is a pure function of the provided records and the window;
// the service carries only calibration parameters.
type featureService struct {
	BaseService
	signals config.SignalParams
}

// NewFeatureService creates a new feature computation service.
func NewFeatureService(signals config.SignalParams) portssvc.FeatureComputeSvc {
	return &featureService{signals: signals}
}

// Ensure featureService implements the FeatureComputeSvc interface
var _ portssvc.FeatureComputeSvc = (*featureService)(nil)

func (s *featureService) ComputeFeatureSet(ctx context.Context, records domain.UserRecords, windowDays int, asOf time.Time) (*domain.FeatureSet, error) {
	window, err := domain.NewWindow(asOf, windowDays)
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve window",
			slog.String("user_id", records.UserID),
			slog.Int("window_days", windowDays))
		return nil, err
	}

	records = s.dropOrphanTransactions(ctx, records)

	key := domain.FeatureKey{
		UserID:     records.UserID,
		WindowDays: windowDays,
		AsOfDate:   window.End,
	}

	set := &domain.FeatureSet{
		Subscriptions: s.computeSubscriptionFeatures(key, records, window.End),
		Savings:       s.computeSavingsFeatures(key, records, window),
		Credit:        s.computeCreditFeatures(key, records, window),
		Income:        s.computeIncomeFeatures(key, records, window),
		CashFlow:      s.computeCashFlowFeatures(key, records, window),
	}

	s.LogDebug(ctx, "Feature set computed",
		slog.String("user_id", records.UserID),
		slog.Int("window_days", windowDays),
		slog.Time("as_of_date", window.End))
	return set, nil
}

// dropOrphanTransactions removes transactions referencing accounts the
// store did not return. A referential inconsistency is logged and
// skipped; it never aborts the user's pipeline.
func (s *featureService) dropOrphanTransactions(ctx context.Context, records domain.UserRecords) domain.UserRecords {
	known := make(map[string]struct{}, len(records.Accounts))
	for _, a := range records.Accounts {
		known[a.AccountID] = struct{}{}
	}

	kept := make([]domain.Transaction, 0, len(records.Transactions))
	for _, t := range records.Transactions {
		if _, ok := known[t.AccountID]; !ok {
			s.LogWarn(ctx, "Skipping transaction referencing unknown account",
				slog.String("transaction_id", t.TransactionID),
				slog.String("account_id", t.AccountID),
				slog.String("user_id", records.UserID))
			continue
		}
		kept = append(kept, t)
	}
	records.Transactions = kept
	return records
}
