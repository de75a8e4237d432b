package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalType identifies one of the five behavioral signal detectors.
type SignalType string

const (
	SignalSubscriptions SignalType = "subscriptions"
	SignalSavings       SignalType = "savings"
	SignalCredit        SignalType = "credit"
	SignalIncome        SignalType = "income"
	SignalCashFlow      SignalType = "cash_flow"
)

// AllSignalTypes lists every signal type in canonical order.
var AllSignalTypes = []SignalType{
	SignalSubscriptions,
	SignalSavings,
	SignalCredit,
	SignalIncome,
	SignalCashFlow,
}

// FeatureKey uniquely identifies one feature record. Records are
// write-once per key; recomputation for a different as-of date produces
// a new record rather than mutating an existing one.
type FeatureKey struct {
	UserID     string    `json:"userID"`
	WindowDays int       `json:"windowDays"`
	AsOfDate   time.Time `json:"asOfDate"`
}

// Cadence is the periodicity inferred from the gaps between a merchant's
// successive transaction dates.
type Cadence string

const (
	CadenceMonthly Cadence = "monthly"
	CadenceWeekly  Cadence = "weekly"
	CadenceNone    Cadence = "none"
)

// RecurringMerchant describes one merchant classified as recurring.
type RecurringMerchant struct {
	Merchant    string          `json:"merchant"`
	Cadence     Cadence         `json:"cadence"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// SubscriptionFeatures holds recurring-payment metrics. Detection always
// uses a fixed lookback independent of the reporting window; the key's
// WindowDays records the reporting window the record belongs to.
type SubscriptionFeatures struct {
	FeatureKey
	RecurringMerchantCount int                 `json:"recurringMerchantCount"`
	MonthlyRecurringSpend  decimal.Decimal     `json:"monthlyRecurringSpend"`
	SubscriptionShare      float64             `json:"subscriptionShare"`
	RecurringMerchants     []RecurringMerchant `json:"recurringMerchants,omitempty"`
}

// SavingsFeatures holds savings growth and emergency fund metrics.
// NetInflow is sign-normalized: positive always means money moving into
// savings accounts, regardless of the store's native sign convention.
type SavingsFeatures struct {
	FeatureKey
	NetInflow                   decimal.Decimal `json:"netInflow"`
	GrowthRate                  float64         `json:"growthRate"`
	GrowthRateUndefined         bool            `json:"growthRateUndefined"` // start balance was non-positive
	EmergencyFundCoverageMonths float64         `json:"emergencyFundCoverageMonths"`
	AvgMonthlyExpenses          decimal.Decimal `json:"avgMonthlyExpenses"`
}

// NetInflowMonthly normalizes the window net inflow to a monthly rate.
func (f SavingsFeatures) NetInflowMonthly() decimal.Decimal {
	if f.WindowDays <= 0 {
		return decimal.Zero
	}
	months := decimal.NewFromInt(int64(f.WindowDays)).Div(decimal.NewFromInt(30))
	return f.NetInflow.Div(months)
}

// CreditFeatures holds credit utilization and liability metrics. The
// utilization aggregates are nil when the user has no credit cards; that
// nil is semantically "no utilization risk", not zero.
type CreditFeatures struct {
	FeatureKey
	MaxUtilization         *float64 `json:"maxUtilization"`
	MinUtilization         *float64 `json:"minUtilization"`
	AvgUtilization         *float64 `json:"avgUtilization"`
	MinimumPaymentOnly     bool     `json:"minimumPaymentOnly"`
	InterestChargesPresent bool     `json:"interestChargesPresent"`
	IsOverdue              bool     `json:"isOverdue"`
}

// UtilizationAtLeast reports whether any card reaches the given
// utilization level. The 30/50/80 percent flags are derived from the
// aggregates, never stored separately.
func (f CreditFeatures) UtilizationAtLeast(level float64) bool {
	return f.MaxUtilization != nil && *f.MaxUtilization >= level
}

// IncomeFeatures holds payroll cadence and cash buffer metrics.
// MedianPayGapDays is nil when fewer than two payroll events fell in the
// window; a gap cannot be computed from a single event.
type IncomeFeatures struct {
	FeatureKey
	PayrollCount         int             `json:"payrollCount"`
	MedianPayGapDays     *float64        `json:"medianPayGapDays"`
	CashFlowBufferMonths float64         `json:"cashFlowBufferMonths"`
	AvgMonthlyExpenses   decimal.Decimal `json:"avgMonthlyExpenses"`
}

// CashFlowFeatures holds daily-balance reconstruction metrics for the
// primary checking account.
type CashFlowFeatures struct {
	FeatureKey
	PctDaysBelowThreshold float64         `json:"pctDaysBelowThreshold"`
	BalanceVolatility     float64         `json:"balanceVolatility"`
	VolatilityUndefined   bool            `json:"volatilityUndefined"` // mean daily balance was non-positive
	MinBalance            decimal.Decimal `json:"minBalance"`
	MaxBalance            decimal.Decimal `json:"maxBalance"`
	AvgBalance            decimal.Decimal `json:"avgBalance"`
}

// FeatureSet bundles all five feature records for one (user, window,
// as-of-date) key. Persona evaluators consume the whole set.
type FeatureSet struct {
	Subscriptions SubscriptionFeatures `json:"subscriptions"`
	Savings       SavingsFeatures      `json:"savings"`
	Credit        CreditFeatures       `json:"credit"`
	Income        IncomeFeatures       `json:"income"`
	CashFlow      CashFlowFeatures     `json:"cashFlow"`
}
