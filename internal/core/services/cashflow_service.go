package services

import (
	"github.com/shopspring/decimal"

	"github.com/spendsense/persona-engine/internal/core/domain"
	"github.com/spendsense/persona-engine/internal/utils/stats"
)

// reconstructDailyBalances replays an account's window transactions in
// date order, producing one balance per calendar day. The start balance
// is derived from the current balance by adding back the window's net
// outflow (positive amount = outflow, so subtracting an amount moves the
// balance forward and adding it moves the balance backward in time).
func reconstructDailyBalances(txns []domain.Transaction, accountID string, w domain.Window, currentBalance decimal.Decimal) []decimal.Decimal {
	// Net signed amount per day for this account inside the window.
	perDay := make(map[int64]decimal.Decimal, w.Days)
	netAmount := decimal.Zero
	for _, t := range txns {
		if t.AccountID != accountID || !w.Contains(t.Date) {
			continue
		}
		day := domain.TruncateToDay(t.Date).Unix()
		perDay[day] = perDay[day].Add(t.Amount)
		netAmount = netAmount.Add(t.Amount)
	}

	// currentBalance is as-of the window end; walking back over the window
	// restores every outflow and removes every inflow.
	running := currentBalance.Add(netAmount)

	balances := make([]decimal.Decimal, 0, w.Days)
	for day := w.Start.AddDate(0, 0, 1); !day.After(w.End); day = day.AddDate(0, 0, 1) {
		if amount, ok := perDay[day.Unix()]; ok {
			running = running.Sub(amount)
		}
		balances = append(balances, running)
	}
	return balances
}

// computeCashFlowFeatures reconstructs the primary checking account's
// daily balance series and measures low-balance frequency and
// volatility. Without a checking account the series cannot exist; the
// metrics stay zero with the volatility flagged undefined.
func (s *featureService) computeCashFlowFeatures(key domain.FeatureKey, records domain.UserRecords, w domain.Window) domain.CashFlowFeatures {
	features := domain.CashFlowFeatures{FeatureKey: key}

	checking, ok := primaryCheckingAccount(records)
	if !ok {
		features.VolatilityUndefined = true
		return features
	}

	balances := reconstructDailyBalances(records.Transactions, checking.AccountID, w, checking.BalanceCurrent)
	if len(balances) == 0 {
		features.VolatilityUndefined = true
		features.MinBalance = checking.BalanceCurrent
		features.MaxBalance = checking.BalanceCurrent
		features.AvgBalance = checking.BalanceCurrent
		return features
	}

	lowThreshold := decimal.NewFromFloat(s.signals.LowBalanceThreshold)
	daysBelow := 0
	minBalance, maxBalance := balances[0], balances[0]
	sum := decimal.Zero
	series := make([]float64, len(balances))
	for i, b := range balances {
		if b.LessThan(lowThreshold) {
			daysBelow++
		}
		if b.LessThan(minBalance) {
			minBalance = b
		}
		if b.GreaterThan(maxBalance) {
			maxBalance = b
		}
		sum = sum.Add(b)
		series[i] = b.InexactFloat64()
	}

	mean := stats.Mean(series)
	features.PctDaysBelowThreshold = float64(daysBelow) / float64(len(balances))
	features.MinBalance = minBalance.Round(2)
	features.MaxBalance = maxBalance.Round(2)
	features.AvgBalance = sum.Div(decimal.NewFromInt(int64(len(balances)))).Round(2)

	if mean > 0 {
		features.BalanceVolatility = stats.PopulationStdDev(series) / mean
	} else {
		// Volatility is a ratio to the mean; a non-positive mean makes it
		// meaningless, so it stays zero with an explicit flag.
		features.VolatilityUndefined = true
	}

	return features
}
