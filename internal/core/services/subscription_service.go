package services

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendsense/persona-engine/internal/core/domain"
)

// detectCadence classifies the gaps between a merchant's consecutive
// transaction dates. A merchant is recurring when at least gapShare of
// the gaps fall within tolerance of a 30-day (monthly) or 7-day (weekly)
// period. Fewer than three occurrences never qualify.
func detectCadence(dates []time.Time, toleranceDays int, gapShare float64) (bool, domain.Cadence) {
	if len(dates) < 3 {
		return false, domain.CadenceNone
	}

	gaps := make([]int, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		gap := int(dates[i].Sub(dates[i-1]).Hours() / 24)
		gaps = append(gaps, gap)
	}

	matchesWithin := func(center int) float64 {
		matched := 0
		for _, gap := range gaps {
			if gap >= center-toleranceDays && gap <= center+toleranceDays {
				matched++
			}
		}
		return float64(matched) / float64(len(gaps))
	}

	if matchesWithin(30) >= gapShare {
		return true, domain.CadenceMonthly
	}
	if matchesWithin(7) >= gapShare {
		return true, domain.CadenceWeekly
	}
	return false, domain.CadenceNone
}

// computeSubscriptionFeatures detects recurring merchants over a fixed
// lookback ending at the as-of date. The lookback is independent of the
// reporting window; the key records which reporting window the feature
// belongs to. Zero transactions yields zeroed features, not an error.
func (s *featureService) computeSubscriptionFeatures(key domain.FeatureKey, records domain.UserRecords, asOf time.Time) domain.SubscriptionFeatures {
	features := domain.SubscriptionFeatures{FeatureKey: key}

	lookback, err := domain.NewWindow(asOf, s.signals.SubscriptionLookbackDays)
	if err != nil {
		return features
	}

	outflows := make([]domain.Transaction, 0)
	totalSpend := decimal.Zero
	for _, t := range transactionsInWindow(records.Transactions, lookback) {
		if t.IsOutflow() {
			outflows = append(outflows, t)
			totalSpend = totalSpend.Add(t.Amount)
		}
	}
	if len(outflows) == 0 {
		return features
	}

	// Group by normalized merchant name; remember the first-seen spelling
	// for the audit surface.
	type merchantGroup struct {
		display string
		txns    []domain.Transaction
	}
	groups := make(map[string]*merchantGroup)
	for _, t := range outflows {
		norm := strings.ToLower(strings.TrimSpace(t.MerchantName))
		if norm == "" {
			continue
		}
		g, ok := groups[norm]
		if !ok {
			g = &merchantGroup{display: t.MerchantName}
			groups[norm] = g
		}
		g.txns = append(g.txns, t)
	}

	// Sorted keys keep the recurring merchant list, and therefore the
	// persisted record, reproducible across runs.
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	totalRecurringSpend := decimal.Zero
	var recurring []domain.RecurringMerchant
	for _, k := range keys {
		g := groups[k]
		if len(g.txns) < 3 {
			continue
		}

		sort.Slice(g.txns, func(i, j int) bool { return g.txns[i].Date.Before(g.txns[j].Date) })
		dates := make([]time.Time, len(g.txns))
		merchantSpend := decimal.Zero
		for i, t := range g.txns {
			dates[i] = t.Date
			merchantSpend = merchantSpend.Add(t.Amount)
		}

		isRecurring, cadence := detectCadence(dates, s.signals.CadenceToleranceDays, s.signals.CadenceGapShare)
		if !isRecurring {
			continue
		}

		recurring = append(recurring, domain.RecurringMerchant{
			Merchant:    g.display,
			Cadence:     cadence,
			Count:       len(g.txns),
			TotalAmount: merchantSpend,
		})
		totalRecurringSpend = totalRecurringSpend.Add(merchantSpend)
	}

	months := decimal.NewFromInt(int64(s.signals.SubscriptionLookbackDays)).Div(decimal.NewFromInt(30))

	features.RecurringMerchantCount = len(recurring)
	features.RecurringMerchants = recurring
	features.MonthlyRecurringSpend = totalRecurringSpend.Div(months).Round(2)
	features.SubscriptionShare = ratio(totalRecurringSpend, totalSpend)
	return features
}
