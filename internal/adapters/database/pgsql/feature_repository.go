package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spendsense/persona-engine/internal/apperrors"
	"github.com/spendsense/persona-engine/internal/core/domain"
	portsrepo "github.com/spendsense/persona-engine/internal/core/ports/repositories"
)

type featureRepository struct {
	pool *pgxpool.Pool
}

// NewFeatureRepository creates a new repository for computed feature records.
func NewFeatureRepository(pool *pgxpool.Pool) portsrepo.FeatureRepositoryFacade {
	return &featureRepository{pool: pool}
}

// upsertRecord persists one signal's metrics as a JSONB document. The
// strongly-typed record is serialized only here, at the storage
// boundary. The upsert is idempotent: re-running the same as-of date
// rewrites the row with identical content.
func (r *featureRepository) upsertRecord(ctx context.Context, key domain.FeatureKey, signalType domain.SignalType, record any) error {
	metrics, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s features: %w", signalType, err)
	}

	query := `
		INSERT INTO feature_records (user_id, window_days, as_of_date, signal_type, metrics, computed_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id, window_days, as_of_date, signal_type)
		DO UPDATE SET metrics = EXCLUDED.metrics;
	`

	_, err = r.pool.Exec(ctx, query,
		key.UserID,
		key.WindowDays,
		key.AsOfDate,
		string(signalType),
		metrics,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %s features for user %s: %w", signalType, key.UserID, err)
	}
	return nil
}

func (r *featureRepository) UpsertSubscriptionFeatures(ctx context.Context, f domain.SubscriptionFeatures) error {
	return r.upsertRecord(ctx, f.FeatureKey, domain.SignalSubscriptions, f)
}

func (r *featureRepository) UpsertSavingsFeatures(ctx context.Context, f domain.SavingsFeatures) error {
	return r.upsertRecord(ctx, f.FeatureKey, domain.SignalSavings, f)
}

func (r *featureRepository) UpsertCreditFeatures(ctx context.Context, f domain.CreditFeatures) error {
	return r.upsertRecord(ctx, f.FeatureKey, domain.SignalCredit, f)
}

func (r *featureRepository) UpsertIncomeFeatures(ctx context.Context, f domain.IncomeFeatures) error {
	return r.upsertRecord(ctx, f.FeatureKey, domain.SignalIncome, f)
}

func (r *featureRepository) UpsertCashFlowFeatures(ctx context.Context, f domain.CashFlowFeatures) error {
	return r.upsertRecord(ctx, f.FeatureKey, domain.SignalCashFlow, f)
}

// FindFeatureSet retrieves all five feature records for one key.
func (r *featureRepository) FindFeatureSet(ctx context.Context, userID string, windowDays int, asOfDate time.Time) (*domain.FeatureSet, error) {
	query := `
		SELECT signal_type, metrics
		FROM feature_records
		WHERE user_id = $1 AND window_days = $2 AND as_of_date = $3;
	`

	rows, err := r.pool.Query(ctx, query, userID, windowDays, asOfDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find feature set for user %s: %w", userID, err)
	}
	defer rows.Close()

	set := &domain.FeatureSet{}
	found := make(map[domain.SignalType]bool)
	for rows.Next() {
		var signalType string
		var metrics []byte
		if err := rows.Scan(&signalType, &metrics); err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}

		var target any
		switch domain.SignalType(signalType) {
		case domain.SignalSubscriptions:
			target = &set.Subscriptions
		case domain.SignalSavings:
			target = &set.Savings
		case domain.SignalCredit:
			target = &set.Credit
		case domain.SignalIncome:
			target = &set.Income
		case domain.SignalCashFlow:
			target = &set.CashFlow
		default:
			continue
		}
		if err := json.Unmarshal(metrics, target); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s features: %w", signalType, err)
		}
		found[domain.SignalType(signalType)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading feature rows: %w", err)
	}

	for _, signalType := range domain.AllSignalTypes {
		if !found[signalType] {
			return nil, fmt.Errorf("missing %s features for user %s: %w", signalType, userID, apperrors.ErrNotFound)
		}
	}
	return set, nil
}
