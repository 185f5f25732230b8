package core

import "time"

// windowCompletenessSlack is how close (in days) the earliest record must
// be to the window start for the window to count as complete.
const windowCompletenessSlack = 7

// WindowResult is one bounded read of transactions. It is created fresh
// per query and never persisted.
type WindowResult struct {
	Records     []Transaction
	WindowStart time.Time
	WindowEnd   time.Time
	IsComplete  bool
	RecordCount int
}

// NewWindowResult assembles a WindowResult from date-sorted records.
// IsComplete is true only when the earliest record falls within 7 days of
// the window start, signaling that the window is not truncated by sparse
// early history.
func NewWindowResult(records []Transaction, start, end time.Time) WindowResult {
	r := WindowResult{
		Records:     records,
		WindowStart: start,
		WindowEnd:   end,
		RecordCount: len(records),
	}
	if len(records) > 0 {
		earliest := records[0].Date
		for _, t := range records[1:] {
			if t.Date.Before(earliest) {
				earliest = t.Date
			}
		}
		r.IsComplete = DaysBetween(start, earliest) <= windowCompletenessSlack
	}
	return r
}

// DetectedSubscription is one recurring-merchant charge pattern. It is a
// value object with no identity beyond (user, merchant, window).
type DetectedSubscription struct {
	MerchantName     string
	Cadence          Cadence
	AvgAmount        float64
	TransactionCount int
	LastChargeDate   time.Time
	MedianGapDays    float64
}

// SubscriptionMetrics aggregates recurring-charge behavior for one
// (user, window, reference date).
type SubscriptionMetrics struct {
	UserID                string
	WindowDays            int
	ReferenceDate         time.Time
	Subscriptions         []DetectedSubscription
	SubscriptionCount     int
	MonthlyRecurringSpend float64
	TotalSpend            float64
	SubscriptionShare     float64
}

// EmptySubscriptionMetrics is the canonical no-signal default.
func EmptySubscriptionMetrics(userID string, windowDays int, reference time.Time) SubscriptionMetrics {
	return SubscriptionMetrics{
		UserID:        userID,
		WindowDays:    windowDays,
		ReferenceDate: Day(reference),
		Subscriptions: []DetectedSubscription{},
	}
}

// SavingsMetrics aggregates savings behavior for one
// (user, window, reference date).
type SavingsMetrics struct {
	UserID              string
	WindowDays          int
	ReferenceDate       time.Time
	HasSavingsAccounts  bool
	SavingsAccountCount int
	TotalSavingsBalance float64
	NetInflow           float64
	SavingsGrowthRate   float64
	AvgMonthlyExpenses  float64
	EmergencyFundMonths float64
}

// EmptySavingsMetrics is the canonical no-signal default.
func EmptySavingsMetrics(userID string, windowDays int, reference time.Time) SavingsMetrics {
	return SavingsMetrics{
		UserID:        userID,
		WindowDays:    windowDays,
		ReferenceDate: Day(reference),
	}
}

// PerCardUtilization is the utilization picture for a single credit card.
type PerCardUtilization struct {
	AccountID          string
	Balance            float64
	Limit              float64
	Utilization        float64
	Tier               UtilizationTier
	MinimumPaymentOnly bool
	IsOverdue          bool
	APR                float64
}

// CreditMetrics aggregates credit usage for one
// (user, window, reference date).
type CreditMetrics struct {
	UserID                  string
	WindowDays              int
	ReferenceDate           time.Time
	NumCreditCards          int
	Cards                   []PerCardUtilization
	TotalBalance            float64
	TotalLimit              float64
	AggregateUtilization    float64
	HighUtilizationCount    int
	MinimumPaymentOnlyCount int
	HasInterestCharges      bool
	AnyOverdue              bool
}

// EmptyCreditMetrics is the canonical no-signal default.
func EmptyCreditMetrics(userID string, windowDays int, reference time.Time) CreditMetrics {
	return CreditMetrics{
		UserID:        userID,
		WindowDays:    windowDays,
		ReferenceDate: Day(reference),
		Cards:         []PerCardUtilization{},
	}
}

// IncomeMetrics aggregates income stability for one
// (user, window, reference date).
type IncomeMetrics struct {
	UserID                string
	WindowDays            int
	ReferenceDate         time.Time
	NumIncomeTransactions int
	PaymentFrequency      PaymentFrequency
	HasRegularIncome      bool
	AvgIncomeAmount       float64
	TotalIncome           float64
	AvgMonthlyIncome      float64
	IncomeVariabilityCV   float64
	CashFlowBufferMonths  float64
	MedianGapDays         float64
}

// EmptyIncomeMetrics is the canonical no-signal default. Frequency is
// "unknown" rather than zero so downstream consumers can distinguish
// missing data from detected irregularity.
func EmptyIncomeMetrics(userID string, windowDays int, reference time.Time) IncomeMetrics {
	return IncomeMetrics{
		UserID:           userID,
		WindowDays:       windowDays,
		ReferenceDate:    Day(reference),
		PaymentFrequency: FrequencyUnknown,
	}
}
