package services

import (
	"github.com/shopspring/decimal"

	"github.com/spendsense/persona-engine/internal/core/domain"
)

// Category tags the transaction store uses for credit card interest.
const (
	categoryBankFees = "BANK_FEES"
	categoryInterest = "Interest"
)

// computeCreditFeatures joins credit card accounts to their liabilities.
// A user without credit cards yields nil utilization aggregates; that
// nil means "no utilization risk" and is consumed specially by the
// savings builder evaluator.
func (s *featureService) computeCreditFeatures(key domain.FeatureKey, records domain.UserRecords, w domain.Window) domain.CreditFeatures {
	features := domain.CreditFeatures{FeatureKey: key}

	cardIDs := make(map[string]struct{})
	var utilizations []float64
	for _, a := range records.Accounts {
		if !a.IsCreditCard() {
			continue
		}
		cardIDs[a.AccountID] = struct{}{}
		if a.BalanceLimit == nil || !a.BalanceLimit.IsPositive() {
			continue
		}
		utilizations = append(utilizations, ratio(a.BalanceCurrent, *a.BalanceLimit))
	}

	if len(cardIDs) == 0 {
		return features
	}

	maxU, minU, sum := 0.0, 0.0, 0.0
	for i, u := range utilizations {
		if i == 0 || u > maxU {
			maxU = u
		}
		if i == 0 || u < minU {
			minU = u
		}
		sum += u
	}
	avgU := 0.0
	if len(utilizations) > 0 {
		avgU = sum / float64(len(utilizations))
	}
	features.MaxUtilization = &maxU
	features.MinUtilization = &minU
	features.AvgUtilization = &avgU

	for _, l := range records.Liabilities {
		if _, ok := cardIDs[l.AccountID]; !ok {
			continue
		}
		if l.IsOverdue {
			features.IsOverdue = true
		}
		if l.MinimumPaymentAmount.IsPositive() && l.LastPaymentAmount.IsPositive() {
			deviation := l.LastPaymentAmount.Sub(l.MinimumPaymentAmount).Abs()
			tolerance := l.MinimumPaymentAmount.Mul(decimal.NewFromFloat(s.signals.MinPaymentTolerance))
			if deviation.LessThanOrEqual(tolerance) {
				features.MinimumPaymentOnly = true
			}
		}
	}

	for _, t := range transactionsInWindow(records.Transactions, w) {
		if t.IsOutflow() && t.CategoryPrimary == categoryBankFees && t.CategoryDetailed == categoryInterest {
			features.InterestChargesPresent = true
			break
		}
	}

	return features
}
