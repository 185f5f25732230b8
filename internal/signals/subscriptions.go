package signals

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/reena96/spendsense-sub001/internal/core"
)

// Subscription cadence thresholds, in days. A merchant's charge gaps are
// summarized by their median and standard deviation; the pair decides
// the cadence bucket.
const (
	subscriptionMinCharges = 3

	monthlyGapMin       = 25.0
	monthlyGapMax       = 35.0
	monthlyGapDeviation = 7.0

	weeklyGapMin       = 5.0
	weeklyGapMax       = 9.0
	weeklyGapDeviation = 3.0

	// Gaps with a median at or beyond this are not recurring at all.
	irregularGapCutoff = 60.0

	// Charges whose amounts vary more than this (coefficient of
	// variation) are downgraded to irregular, not discarded. Downstream
	// consumers are calibrated against this exact tolerance.
	amountVariationTolerance = 0.20

	// Pattern detection always looks back 180 days regardless of the
	// requested window, so sparse monthly cadences have enough history.
	subscriptionLookbackDays = core.Window180
)

// SubscriptionDetector finds recurring-merchant charge patterns and
// classifies their cadence.
type SubscriptionDetector struct {
	windows *Windows
}

// NewSubscriptionDetector returns a detector over the given windowing
// primitive.
func NewSubscriptionDetector(windows *Windows) *SubscriptionDetector {
	return &SubscriptionDetector{windows: windows}
}

// Detect computes subscription metrics for the requested window. The
// detection itself runs over a fixed 180-day lookback; the reported set
// is restricted to subscriptions whose last charge falls inside the
// requested window.
func (d *SubscriptionDetector) Detect(ctx context.Context, userID string, reference time.Time, windowDays int) (core.SubscriptionMetrics, error) {
	windowStart, _, err := core.WindowBounds(reference, windowDays)
	if err != nil {
		return core.SubscriptionMetrics{}, err
	}

	lookback, err := d.windows.TransactionsInWindow(ctx, userID, reference, subscriptionLookbackDays)
	if err != nil {
		return core.SubscriptionMetrics{}, err
	}

	metrics := core.EmptySubscriptionMetrics(userID, windowDays, reference)

	byMerchant := groupChargesByMerchant(lookback.Records)
	activeMerchants := make(map[string]bool)
	for merchant, charges := range byMerchant {
		sub, ok := classifySubscription(merchant, charges)
		if !ok {
			continue
		}
		if sub.LastChargeDate.Before(windowStart) {
			continue
		}
		metrics.Subscriptions = append(metrics.Subscriptions, sub)
		activeMerchants[merchant] = true
	}
	sort.Slice(metrics.Subscriptions, func(i, j int) bool {
		return metrics.Subscriptions[i].MerchantName < metrics.Subscriptions[j].MerchantName
	})
	metrics.SubscriptionCount = len(metrics.Subscriptions)

	var totalSpend, subscriptionSpend float64
	for _, t := range lookback.Records {
		if !t.IsDebit() || t.Date.Before(windowStart) {
			continue
		}
		amount := math.Abs(t.Amount)
		totalSpend += amount
		if activeMerchants[t.MerchantName] {
			subscriptionSpend += amount
		}
	}
	metrics.TotalSpend = totalSpend
	metrics.MonthlyRecurringSpend = normalizeMonthlySpend(subscriptionSpend, windowDays)
	if totalSpend > 0 {
		metrics.SubscriptionShare = subscriptionSpend / totalSpend
	}

	return metrics, nil
}

// groupChargesByMerchant buckets debit transactions by merchant name,
// date-sorted. Transactions without a merchant cannot recur by merchant
// and are skipped.
func groupChargesByMerchant(records []core.Transaction) map[string][]core.Transaction {
	byMerchant := make(map[string][]core.Transaction)
	for _, t := range records {
		if !t.IsDebit() || t.MerchantName == "" {
			continue
		}
		byMerchant[t.MerchantName] = append(byMerchant[t.MerchantName], t)
	}
	for _, charges := range byMerchant {
		sort.Slice(charges, func(i, j int) bool {
			return charges[i].Date.Before(charges[j].Date)
		})
	}
	return byMerchant
}

// classifySubscription decides whether a merchant's charge history forms
// a subscription and, if so, with what cadence.
func classifySubscription(merchant string, charges []core.Transaction) (core.DetectedSubscription, bool) {
	if len(charges) < subscriptionMinCharges {
		return core.DetectedSubscription{}, false
	}

	gaps := make([]float64, 0, len(charges)-1)
	amounts := make([]float64, 0, len(charges))
	for i, t := range charges {
		amounts = append(amounts, math.Abs(t.Amount))
		if i > 0 {
			gaps = append(gaps, core.DaysBetween(charges[i-1].Date, t.Date))
		}
	}

	medianGap := median(gaps)
	gapDeviation := stddev(gaps)

	var cadence core.Cadence
	switch {
	case medianGap >= monthlyGapMin && medianGap <= monthlyGapMax && gapDeviation <= monthlyGapDeviation:
		cadence = core.CadenceMonthly
	case medianGap >= weeklyGapMin && medianGap <= weeklyGapMax && gapDeviation <= weeklyGapDeviation:
		cadence = core.CadenceWeekly
	case medianGap < irregularGapCutoff:
		cadence = core.CadenceIrregular
	default:
		return core.DetectedSubscription{}, false
	}

	if coefficientOfVariation(amounts) > amountVariationTolerance {
		cadence = core.CadenceIrregular
	}

	return core.DetectedSubscription{
		MerchantName:     merchant,
		Cadence:          cadence,
		AvgAmount:        mean(amounts),
		TransactionCount: len(charges),
		LastChargeDate:   core.Day(charges[len(charges)-1].Date),
		MedianGapDays:    medianGap,
	}, true
}

// normalizeMonthlySpend converts window spend into a 30-day figure.
func normalizeMonthlySpend(spend float64, windowDays int) float64 {
	switch windowDays {
	case core.Window30:
		return spend
	case core.Window180:
		return spend / 6
	default:
		return spend * 30 / float64(windowDays)
	}
}
