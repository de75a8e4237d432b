package services

import (
	"github.com/shopspring/decimal"

	"github.com/spendsense/persona-engine/internal/core/domain"
)

// transactionsInWindow filters transactions to those inside the window.
func transactionsInWindow(txns []domain.Transaction, w domain.Window) []domain.Transaction {
	filtered := make([]domain.Transaction, 0, len(txns))
	for _, t := range txns {
		if w.Contains(t.Date) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// avgMonthlyExpenses sums all outflow transactions in the window and
// normalizes to a monthly rate. The result is floored so that downstream
// ratios (buffer months, fund coverage) never divide by zero.
func avgMonthlyExpenses(txns []domain.Transaction, w domain.Window, floor decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.IsOutflow() {
			total = total.Add(t.Amount)
		}
	}
	months := decimal.NewFromFloat(w.Months())
	if months.IsZero() {
		return floor
	}
	avg := total.Div(months)
	if avg.LessThan(floor) {
		return floor
	}
	return avg
}

// primaryCheckingAccount picks the user's primary checking account. With
// multiple checking accounts, the one carrying the most transactions
// wins; ties resolve to the lexically smaller account ID so the choice
// is reproducible across runs.
func primaryCheckingAccount(records domain.UserRecords) (domain.Account, bool) {
	var checking []domain.Account
	for _, a := range records.Accounts {
		if a.IsChecking() {
			checking = append(checking, a)
		}
	}
	if len(checking) == 0 {
		return domain.Account{}, false
	}
	if len(checking) == 1 {
		return checking[0], true
	}

	counts := make(map[string]int, len(checking))
	for _, t := range records.Transactions {
		counts[t.AccountID]++
	}

	best := checking[0]
	for _, a := range checking[1:] {
		if counts[a.AccountID] > counts[best.AccountID] ||
			(counts[a.AccountID] == counts[best.AccountID] && a.AccountID < best.AccountID) {
			best = a
		}
	}
	return best, true
}

// ratio divides two decimals into a float64, returning 0 when the
// denominator is not positive.
func ratio(num, den decimal.Decimal) float64 {
	if !den.IsPositive() {
		return 0
	}
	return num.Div(den).InexactFloat64()
}
