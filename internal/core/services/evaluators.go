package services

import (
	"github.com/spendsense/persona-engine/internal/core/domain"
	"github.com/spendsense/persona-engine/pkg/config"
)

// Each evaluator is a pure function (features, thresholds) -> evaluation.
// An evaluation is produced whether or not the persona matched, so the
// audit trace always covers all five personas.

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

// numericCriterion cites a value against a threshold.
func numericCriterion(name string, value, threshold float64, satisfied bool) domain.CriterionResult {
	return domain.CriterionResult{
		Name:      name,
		Value:     floatPtr(value),
		Threshold: floatPtr(threshold),
		Satisfied: satisfied,
	}
}

// flagCriterion cites a boolean value.
func flagCriterion(name string, value bool) domain.CriterionResult {
	return domain.CriterionResult{
		Name:      name,
		Flag:      boolPtr(value),
		Satisfied: value,
	}
}

func newEvaluation(id domain.PersonaID) domain.PersonaEvaluation {
	def, _ := domain.PersonaByID(id)
	return domain.PersonaEvaluation{
		PersonaID: def.ID,
		Name:      def.Name,
		Tier:      def.Tier,
	}
}

// evaluateHighUtilization matches when ANY of: a card at or above the
// high-utilization threshold, interest charges in the window, a
// minimum-payment-only pattern, or an overdue card. Severity is the max
// utilization across cards.
func evaluateHighUtilization(fs domain.FeatureSet, th config.PersonaThresholds) domain.PersonaEvaluation {
	eval := newEvaluation(domain.PersonaHighUtilization)
	credit := fs.Credit

	utilCriterion := domain.CriterionResult{
		Name:      "max_utilization",
		Threshold: floatPtr(th.HighUtilization),
	}
	if credit.MaxUtilization != nil {
		utilCriterion.Value = credit.MaxUtilization
		utilCriterion.Satisfied = *credit.MaxUtilization >= th.HighUtilization
	} else {
		utilCriterion.Missing = true
	}

	eval.Criteria = []domain.CriterionResult{
		utilCriterion,
		flagCriterion("interest_charges_present", credit.InterestChargesPresent),
		flagCriterion("minimum_payment_only", credit.MinimumPaymentOnly),
		flagCriterion("is_overdue", credit.IsOverdue),
	}

	for _, c := range eval.Criteria {
		if c.Satisfied {
			eval.Matched = true
			eval.TriggeredBy = append(eval.TriggeredBy, c.Name)
		}
	}

	if eval.Matched && credit.MaxUtilization != nil {
		eval.Severity = *credit.MaxUtilization
	}
	return eval
}

// evaluateVariableIncome matches when ALL of: median pay gap beyond the
// threshold and the checking buffer under the low-buffer mark. Severity
// is the pay gap normalized by its threshold.
func evaluateVariableIncome(fs domain.FeatureSet, th config.PersonaThresholds) domain.PersonaEvaluation {
	eval := newEvaluation(domain.PersonaVariableIncome)
	income := fs.Income

	gapCriterion := domain.CriterionResult{
		Name:      "median_pay_gap_days",
		Threshold: floatPtr(th.PayGapDays),
	}
	if income.MedianPayGapDays != nil {
		gapCriterion.Value = income.MedianPayGapDays
		gapCriterion.Satisfied = *income.MedianPayGapDays > th.PayGapDays
	} else {
		// Fewer than two payroll events: no cadence evidence, no match.
		gapCriterion.Missing = true
	}

	bufferCriterion := numericCriterion("cash_flow_buffer_months",
		income.CashFlowBufferMonths, th.LowBufferMonths,
		income.CashFlowBufferMonths < th.LowBufferMonths)

	eval.Criteria = []domain.CriterionResult{gapCriterion, bufferCriterion}
	eval.Matched = gapCriterion.Satisfied && bufferCriterion.Satisfied
	if eval.Matched {
		eval.TriggeredBy = []string{"median_pay_gap_days", "cash_flow_buffer_months"}
		eval.Severity = *income.MedianPayGapDays / th.PayGapDays
	}
	return eval
}

// evaluateSubscriptionHeavy matches when the user has enough recurring
// merchants AND either the monthly recurring spend or the subscription
// share clears its threshold. Severity is the subscription share.
func evaluateSubscriptionHeavy(fs domain.FeatureSet, th config.PersonaThresholds) domain.PersonaEvaluation {
	eval := newEvaluation(domain.PersonaSubscriptionHeavy)
	subs := fs.Subscriptions

	countCriterion := numericCriterion("recurring_merchant_count",
		float64(subs.RecurringMerchantCount), float64(th.RecurringMerchantMin),
		subs.RecurringMerchantCount >= th.RecurringMerchantMin)
	monthlySpend := subs.MonthlyRecurringSpend.InexactFloat64()
	spendCriterion := numericCriterion("monthly_recurring_spend",
		monthlySpend, th.MonthlyRecurringSpendMin,
		monthlySpend >= th.MonthlyRecurringSpendMin)
	shareCriterion := numericCriterion("subscription_share",
		subs.SubscriptionShare, th.SubscriptionShareMin,
		subs.SubscriptionShare >= th.SubscriptionShareMin)

	eval.Criteria = []domain.CriterionResult{countCriterion, spendCriterion, shareCriterion}
	eval.Matched = countCriterion.Satisfied && (spendCriterion.Satisfied || shareCriterion.Satisfied)
	if eval.Matched {
		eval.TriggeredBy = append(eval.TriggeredBy, "recurring_merchant_count")
		if spendCriterion.Satisfied {
			eval.TriggeredBy = append(eval.TriggeredBy, "monthly_recurring_spend")
		}
		if shareCriterion.Satisfied {
			eval.TriggeredBy = append(eval.TriggeredBy, "subscription_share")
		}
		eval.Severity = subs.SubscriptionShare
	}
	return eval
}

// evaluateSavingsBuilder matches when savings are growing (growth rate
// or monthly net inflow above threshold) AND every card sits below the
// utilization ceiling. A user without credit cards auto-passes the
// utilization check; that is a deliberate business rule, nil means "no
// utilization risk".
func evaluateSavingsBuilder(fs domain.FeatureSet, th config.PersonaThresholds) domain.PersonaEvaluation {
	eval := newEvaluation(domain.PersonaSavingsBuilder)
	savings := fs.Savings
	credit := fs.Credit

	growthCriterion := numericCriterion("growth_rate",
		savings.GrowthRate, th.GrowthRateMin,
		!savings.GrowthRateUndefined && savings.GrowthRate >= th.GrowthRateMin)
	inflowMonthly := savings.NetInflowMonthly().InexactFloat64()
	inflowCriterion := numericCriterion("net_inflow_monthly",
		inflowMonthly, th.NetInflowMonthlyMin,
		inflowMonthly >= th.NetInflowMonthlyMin)

	utilCriterion := domain.CriterionResult{
		Name:      "max_utilization",
		Threshold: floatPtr(th.UtilizationCeiling),
	}
	if credit.MaxUtilization == nil {
		utilCriterion.Missing = true
		utilCriterion.Satisfied = true
	} else {
		utilCriterion.Value = credit.MaxUtilization
		utilCriterion.Satisfied = *credit.MaxUtilization < th.UtilizationCeiling
	}

	eval.Criteria = []domain.CriterionResult{growthCriterion, inflowCriterion, utilCriterion}
	eval.Matched = (growthCriterion.Satisfied || inflowCriterion.Satisfied) && utilCriterion.Satisfied
	if eval.Matched {
		if growthCriterion.Satisfied {
			eval.TriggeredBy = append(eval.TriggeredBy, "growth_rate")
		}
		if inflowCriterion.Satisfied {
			eval.TriggeredBy = append(eval.TriggeredBy, "net_inflow_monthly")
		}
		eval.TriggeredBy = append(eval.TriggeredBy, "max_utilization")
		eval.Severity = savings.GrowthRate
	}
	return eval
}

// evaluateCashFlowStressed matches when ALL of: the share of low-balance
// days and the balance volatility clear their thresholds. Severity is
// the share of low-balance days.
func evaluateCashFlowStressed(fs domain.FeatureSet, th config.PersonaThresholds) domain.PersonaEvaluation {
	eval := newEvaluation(domain.PersonaCashFlowStressed)
	cashFlow := fs.CashFlow

	daysCriterion := numericCriterion("pct_days_below_threshold",
		cashFlow.PctDaysBelowThreshold, th.LowBalanceDaysShare,
		cashFlow.PctDaysBelowThreshold >= th.LowBalanceDaysShare)
	volatilityCriterion := numericCriterion("balance_volatility",
		cashFlow.BalanceVolatility, th.VolatilityMin,
		!cashFlow.VolatilityUndefined && cashFlow.BalanceVolatility > th.VolatilityMin)

	eval.Criteria = []domain.CriterionResult{daysCriterion, volatilityCriterion}
	eval.Matched = daysCriterion.Satisfied && volatilityCriterion.Satisfied
	if eval.Matched {
		eval.TriggeredBy = []string{"pct_days_below_threshold", "balance_volatility"}
		eval.Severity = cashFlow.PctDaysBelowThreshold
	}
	return eval
}

// evaluateAllPersonas runs every evaluator in persona ID order.
func evaluateAllPersonas(fs domain.FeatureSet, th config.PersonaThresholds) []domain.PersonaEvaluation {
	return []domain.PersonaEvaluation{
		evaluateHighUtilization(fs, th),
		evaluateVariableIncome(fs, th),
		evaluateSubscriptionHeavy(fs, th),
		evaluateSavingsBuilder(fs, th),
		evaluateCashFlowStressed(fs, th),
	}
}
