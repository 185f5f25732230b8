package signals

import (
	"context"
	"time"

	"github.com/reena96/spendsense-sub001/internal/core"
)

// Credit-limit heuristic and payment-stress constants. The ledger schema
// stores no credit limit, so the limit is approximated as twice the last
// statement balance, with a fixed fallback for zero-balance cards.
// Downstream consumers are calibrated against these exact values.
const (
	limitBalanceMultiplier = 2.0
	defaultCreditLimit     = 1000.0

	// A payment within 5% of the minimum counts as minimum-only.
	minimumPaymentTolerance = 1.05

	tierModerateFloor = 0.30
	tierHighFloor     = 0.50
	tierVeryHighFloor = 0.80
)

// CreditDetector computes per-card and aggregate credit utilization and
// debt-stress indicators.
type CreditDetector struct {
	windows *Windows
}

// NewCreditDetector returns a detector over the given windowing
// primitive.
func NewCreditDetector(windows *Windows) *CreditDetector {
	return &CreditDetector{windows: windows}
}

// Detect computes credit metrics. It joins the liability snapshot
// (credit-card rows) with the account snapshot; a user with no credit
// cards gets the canonical empty metrics.
func (d *CreditDetector) Detect(ctx context.Context, userID string, reference time.Time, windowDays int) (core.CreditMetrics, error) {
	if _, _, err := core.WindowBounds(reference, windowDays); err != nil {
		return core.CreditMetrics{}, err
	}

	liabilities, err := d.windows.LiabilitiesSnapshot(ctx, userID, reference)
	if err != nil {
		return core.CreditMetrics{}, err
	}

	metrics := core.EmptyCreditMetrics(userID, windowDays, reference)
	for _, l := range liabilities {
		if !l.IsCreditCard() {
			continue
		}
		card := assessCard(l)
		metrics.Cards = append(metrics.Cards, card)
		metrics.NumCreditCards++
		metrics.TotalBalance += card.Balance
		metrics.TotalLimit += card.Limit
		if card.Tier == core.TierHigh || card.Tier == core.TierVeryHigh {
			metrics.HighUtilizationCount++
		}
		if card.MinimumPaymentOnly {
			metrics.MinimumPaymentOnlyCount++
		}
		if card.APR > 0 {
			metrics.HasInterestCharges = true
		}
		if card.IsOverdue {
			metrics.AnyOverdue = true
		}
	}
	if metrics.TotalLimit > 0 {
		metrics.AggregateUtilization = metrics.TotalBalance / metrics.TotalLimit
	}

	return metrics, nil
}

// assessCard derives the utilization picture for one credit card.
func assessCard(l core.Liability) core.PerCardUtilization {
	balance := l.LastStatementBalance
	limit := balance * limitBalanceMultiplier
	if balance == 0 {
		limit = defaultCreditLimit
	}

	var utilization float64
	if limit > 0 {
		utilization = balance / limit
	}

	return core.PerCardUtilization{
		AccountID:          l.AccountID,
		Balance:            balance,
		Limit:              limit,
		Utilization:        utilization,
		Tier:               utilizationTier(utilization),
		MinimumPaymentOnly: isMinimumPaymentOnly(l),
		IsOverdue:          l.IsOverdue,
		APR:                l.APR,
	}
}

// utilizationTier buckets a utilization ratio. Lower bounds are
// inclusive: exactly 0.30 is moderate, 0.50 is high, 0.80 is very high.
func utilizationTier(utilization float64) core.UtilizationTier {
	switch {
	case utilization >= tierVeryHighFloor:
		return core.TierVeryHigh
	case utilization >= tierHighFloor:
		return core.TierHigh
	case utilization >= tierModerateFloor:
		return core.TierModerate
	default:
		return core.TierLow
	}
}

// isMinimumPaymentOnly flags cards whose last payment did not meaningfully
// exceed the minimum due.
func isMinimumPaymentOnly(l core.Liability) bool {
	if l.MinimumPaymentAmount <= 0 {
		return false
	}
	return l.LastPaymentAmount <= l.MinimumPaymentAmount*minimumPaymentTolerance
}
