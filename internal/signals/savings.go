package signals

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/reena96/spendsense-sub001/internal/core"
)

// SavingsDetector computes savings inflow, approximate growth rate, and
// emergency-fund coverage.
type SavingsDetector struct {
	windows *Windows
}

// NewSavingsDetector returns a detector over the given windowing
// primitive.
func NewSavingsDetector(windows *Windows) *SavingsDetector {
	return &SavingsDetector{windows: windows}
}

// Detect computes savings metrics for the requested window. Users with
// no savings-like accounts (savings, money market, CD, HSA) get the
// canonical empty metrics with HasSavingsAccounts=false.
func (d *SavingsDetector) Detect(ctx context.Context, userID string, reference time.Time, windowDays int) (core.SavingsMetrics, error) {
	if _, _, err := core.WindowBounds(reference, windowDays); err != nil {
		return core.SavingsMetrics{}, err
	}

	accounts, err := d.windows.AccountsSnapshot(ctx, userID, reference)
	if err != nil {
		return core.SavingsMetrics{}, err
	}

	metrics := core.EmptySavingsMetrics(userID, windowDays, reference)
	var totalBalance float64
	for _, a := range accounts {
		if a.IsSavingsLike() {
			metrics.SavingsAccountCount++
			totalBalance += a.Balance
		}
	}
	if metrics.SavingsAccountCount == 0 {
		return metrics, nil
	}
	metrics.HasSavingsAccounts = true
	metrics.TotalSavingsBalance = totalBalance

	window, err := d.windows.TransactionsInWindow(ctx, userID, reference, windowDays)
	if err != nil {
		return core.SavingsMetrics{}, err
	}

	var netInflow, totalDebits float64
	for _, t := range window.Records {
		if !t.IsDebit() {
			continue
		}
		totalDebits += math.Abs(t.Amount)
		// Transfers into savings are recorded as a debit on the source
		// leg; negate to represent positive inflow.
		if isSavingsTransfer(t) {
			netInflow += -t.Amount
		}
	}
	metrics.NetInflow = netInflow
	metrics.SavingsGrowthRate = approximateGrowthRate(totalBalance, netInflow)
	metrics.AvgMonthlyExpenses = totalDebits * 30 / float64(windowDays)
	if metrics.AvgMonthlyExpenses > 0 {
		metrics.EmergencyFundMonths = totalBalance / metrics.AvgMonthlyExpenses
	}

	return metrics, nil
}

// isSavingsTransfer reports whether a transaction is tagged as a
// transfer into savings (e.g. "Transfer, Savings" or
// "TRANSFER_IN_SAVINGS" category spellings).
func isSavingsTransfer(t core.Transaction) bool {
	category := strings.ToLower(t.Category)
	return strings.Contains(category, "transfer") && strings.Contains(category, "savings")
}

// approximateGrowthRate estimates growth over the window. The ledger has
// no historical balance log, so the starting balance is approximated as
// the current balance minus the window's net inflow. A start at or below
// zero with a positive current balance is capped at 1.0 (100%).
func approximateGrowthRate(current, netInflow float64) float64 {
	start := current - netInflow
	switch {
	case start > 0:
		return (current - start) / start
	case current > 0:
		return 1.0
	default:
		return 0
	}
}
