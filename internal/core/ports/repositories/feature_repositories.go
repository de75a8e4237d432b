package repositories

import (
	"context"
	"time"

	"github.com/spendsense/persona-engine/internal/core/domain"
)

// FeatureWriter defines write operations for computed feature records.
// All writes are idempotent upserts keyed by (user_id, window_days,
// as_of_date, signal_type): re-running the same as-of date must yield
// byte-identical stored output.
type FeatureWriter interface {
	UpsertSubscriptionFeatures(ctx context.Context, f domain.SubscriptionFeatures) error
	UpsertSavingsFeatures(ctx context.Context, f domain.SavingsFeatures) error
	UpsertCreditFeatures(ctx context.Context, f domain.CreditFeatures) error
	UpsertIncomeFeatures(ctx context.Context, f domain.IncomeFeatures) error
	UpsertCashFlowFeatures(ctx context.Context, f domain.CashFlowFeatures) error
}

// FeatureReader defines read operations for feature records, used by the
// recommendation engine and by coverage checks.
type FeatureReader interface {
	// FindFeatureSet retrieves all five feature records for one key.
	// Returns apperrors.ErrNotFound if any signal type is missing.
	FindFeatureSet(ctx context.Context, userID string, windowDays int, asOfDate time.Time) (*domain.FeatureSet, error)
}

// FeatureRepositoryFacade combines feature read and write operations.
type FeatureRepositoryFacade interface {
	FeatureWriter
	FeatureReader
}
