package signals

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/reena96/spendsense-sub001/internal/core"
)

// Income classification constants. Candidates need two qualifying
// payments at minimum; anything fewer yields the "unknown" default.
const (
	incomeMinTransactions = 2

	// Large credits qualify as income candidates even without an income
	// category tag.
	incomeAmountFloor = 500.0

	// Gaps jittering beyond this standard deviation mark the income
	// stream irregular regardless of its median gap.
	incomeGapDeviationLimit = 7.0

	biweeklyGapMin = 12.0
	biweeklyGapMax = 16.0

	incomeMonthlyGapMin = 28.0
	incomeMonthlyGapMax = 32.0
)

// IncomeDetector detects payroll-like transactions and classifies
// payment frequency and variability.
type IncomeDetector struct {
	windows *Windows
}

// NewIncomeDetector returns a detector over the given windowing
// primitive.
func NewIncomeDetector(windows *Windows) *IncomeDetector {
	return &IncomeDetector{windows: windows}
}

// Detect computes income metrics for the requested window.
func (d *IncomeDetector) Detect(ctx context.Context, userID string, reference time.Time, windowDays int) (core.IncomeMetrics, error) {
	window, err := d.windows.TransactionsInWindow(ctx, userID, reference, windowDays)
	if err != nil {
		return core.IncomeMetrics{}, err
	}

	metrics := core.EmptyIncomeMetrics(userID, windowDays, reference)

	candidates := incomeCandidates(window.Records)
	if len(candidates) < incomeMinTransactions {
		return metrics, nil
	}

	amounts := make([]float64, len(candidates))
	gaps := make([]float64, 0, len(candidates)-1)
	var total float64
	for i, t := range candidates {
		amounts[i] = t.Amount
		total += t.Amount
		if i > 0 {
			gaps = append(gaps, core.DaysBetween(candidates[i-1].Date, t.Date))
		}
	}

	metrics.NumIncomeTransactions = len(candidates)
	metrics.TotalIncome = total
	metrics.AvgIncomeAmount = mean(amounts)
	metrics.AvgMonthlyIncome = total * 30 / float64(windowDays)
	metrics.IncomeVariabilityCV = coefficientOfVariation(amounts)
	metrics.MedianGapDays = median(gaps)
	metrics.PaymentFrequency = classifyFrequency(gaps)
	metrics.HasRegularIncome = metrics.PaymentFrequency == core.FrequencyWeekly ||
		metrics.PaymentFrequency == core.FrequencyBiweekly ||
		metrics.PaymentFrequency == core.FrequencyMonthly

	buffer, err := d.cashFlowBufferMonths(ctx, userID, reference, windowDays, window.Records)
	if err != nil {
		return core.IncomeMetrics{}, err
	}
	metrics.CashFlowBufferMonths = buffer

	return metrics, nil
}

// incomeCandidates filters payroll-like transactions: positive amount
// and either an income category or an amount at or above the floor.
// Duplicate (date, amount) pairs are collapsed and the result is
// date-sorted.
func incomeCandidates(records []core.Transaction) []core.Transaction {
	seen := make(map[string]bool)
	var candidates []core.Transaction
	for _, t := range records {
		if t.Amount <= 0 {
			continue
		}
		if !isIncomeCategory(t.Category) && t.Amount < incomeAmountFloor {
			continue
		}
		key := fmt.Sprintf("%s|%.2f", core.Day(t.Date).Format("2006-01-02"), t.Amount)
		if seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, t)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Date.Before(candidates[j].Date)
	})
	return candidates
}

// isIncomeCategory reports whether a category string marks the
// transaction as income (payroll, salary, income taggings).
func isIncomeCategory(category string) bool {
	c := strings.ToLower(category)
	return strings.Contains(c, "income") || strings.Contains(c, "payroll") || strings.Contains(c, "salary")
}

// classifyFrequency maps consecutive-payment gaps to a frequency bucket.
// High gap jitter is irregular regardless of the median.
func classifyFrequency(gaps []float64) core.PaymentFrequency {
	if stddev(gaps) > incomeGapDeviationLimit {
		return core.FrequencyIrregular
	}
	medianGap := median(gaps)
	switch {
	case medianGap >= weeklyGapMin && medianGap <= weeklyGapMax:
		return core.FrequencyWeekly
	case medianGap >= biweeklyGapMin && medianGap <= biweeklyGapMax:
		return core.FrequencyBiweekly
	case medianGap >= incomeMonthlyGapMin && medianGap <= incomeMonthlyGapMax:
		return core.FrequencyMonthly
	default:
		return core.FrequencyIrregular
	}
}

// cashFlowBufferMonths is liquid balances (checking + savings) over the
// 30-day-normalized expenses observed in the window.
func (d *IncomeDetector) cashFlowBufferMonths(ctx context.Context, userID string, reference time.Time, windowDays int, records []core.Transaction) (float64, error) {
	accounts, err := d.windows.AccountsSnapshot(ctx, userID, reference)
	if err != nil {
		return 0, err
	}

	var liquid float64
	for _, a := range accounts {
		if a.IsChecking() || a.IsSavingsLike() {
			liquid += a.Balance
		}
	}

	var totalDebits float64
	for _, t := range records {
		if t.IsDebit() {
			totalDebits += math.Abs(t.Amount)
		}
	}
	monthlyExpenses := totalDebits * 30 / float64(windowDays)
	if monthlyExpenses <= 0 {
		return 0, nil
	}
	return liquid / monthlyExpenses, nil
}
