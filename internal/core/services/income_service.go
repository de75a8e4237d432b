package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/spendsense/persona-engine/internal/core/domain"
	"github.com/spendsense/persona-engine/internal/utils/stats"
)

// Payroll signature in the transaction store.
const (
	payrollMerchant = "PAYROLL DEPOSIT"
	categoryIncome  = "INCOME"
)

// isPayroll reports whether a transaction is a payroll deposit: an
// inflow tagged with the payroll merchant or the income category.
func isPayroll(t domain.Transaction) bool {
	if !t.IsInflow() {
		return false
	}
	return t.MerchantName == payrollMerchant || t.CategoryPrimary == categoryIncome
}

// computeIncomeFeatures measures payroll cadence and the checking
// cash-flow buffer. The median pay gap stays nil with fewer than two
// payroll events; a single deposit carries no cadence information and
// zero would read as "paid daily".
func (s *featureService) computeIncomeFeatures(key domain.FeatureKey, records domain.UserRecords, w domain.Window) domain.IncomeFeatures {
	features := domain.IncomeFeatures{FeatureKey: key}

	windowTxns := transactionsInWindow(records.Transactions, w)

	var sortedDays []int
	for _, t := range windowTxns {
		if isPayroll(t) {
			sortedDays = append(sortedDays, int(t.Date.Unix()/86400))
		}
	}
	features.PayrollCount = len(sortedDays)

	if len(sortedDays) >= 2 {
		sort.Ints(sortedDays)
		gaps := make([]float64, 0, len(sortedDays)-1)
		for i := 1; i < len(sortedDays); i++ {
			gaps = append(gaps, float64(sortedDays[i]-sortedDays[i-1]))
		}
		median := stats.Median(gaps)
		features.MedianPayGapDays = &median
	}

	floor := decimal.NewFromFloat(s.signals.ExpenseFloor)
	expenses := avgMonthlyExpenses(windowTxns, w, floor)
	features.AvgMonthlyExpenses = expenses.Round(2)

	checkingBalance := decimal.Zero
	if checking, ok := primaryCheckingAccount(records); ok {
		checkingBalance = checking.BalanceCurrent
	}
	features.CashFlowBufferMonths = ratio(checkingBalance, expenses)

	return features
}
