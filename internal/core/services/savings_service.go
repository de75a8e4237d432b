package services

import (
	"github.com/shopspring/decimal"

	"github.com/spendsense/persona-engine/internal/core/domain"
)

// computeSavingsFeatures aggregates savings-type accounts (savings,
// money market, HSA). Net inflow is sign-normalized here: the store's
// convention is positive = outflow, so the window sum is negated to make
// positive always mean money moving into savings.
func (s *featureService) computeSavingsFeatures(key domain.FeatureKey, records domain.UserRecords, w domain.Window) domain.SavingsFeatures {
	features := domain.SavingsFeatures{FeatureKey: key}

	savingsIDs := make(map[string]struct{})
	currentBalance := decimal.Zero
	for _, a := range records.Accounts {
		if a.IsSavingsType() {
			savingsIDs[a.AccountID] = struct{}{}
			currentBalance = currentBalance.Add(a.BalanceCurrent)
		}
	}

	windowTxns := transactionsInWindow(records.Transactions, w)
	floor := decimal.NewFromFloat(s.signals.ExpenseFloor)
	expenses := avgMonthlyExpenses(windowTxns, w, floor)
	features.AvgMonthlyExpenses = expenses.Round(2)

	if len(savingsIDs) == 0 {
		return features
	}

	netInflow := decimal.Zero
	for _, t := range windowTxns {
		if _, ok := savingsIDs[t.AccountID]; ok {
			netInflow = netInflow.Sub(t.Amount)
		}
	}
	features.NetInflow = netInflow.Round(2)

	// The start balance is reconstructed from the end balance rather than
	// read from the store; account snapshots only carry current balances.
	startBalance := currentBalance.Sub(netInflow)
	if startBalance.IsPositive() {
		features.GrowthRate = ratio(currentBalance.Sub(startBalance), startBalance)
	} else {
		// A non-positive start balance makes the growth ratio meaningless;
		// report zero with an explicit flag instead of dividing.
		features.GrowthRateUndefined = true
	}

	features.EmergencyFundCoverageMonths = ratio(currentBalance, expenses)
	return features
}
