package core

import (
	"errors"
	"strings"
	"time"
)

// Supported analysis windows, in days.
const (
	Window30  = 30
	Window180 = 180
)

// Detector names as they appear in summary metadata.
const (
	DetectorSubscriptions = "subscriptions"
	DetectorSavings       = "savings"
	DetectorCredit        = "credit"
	DetectorIncome        = "income"
)

// Cadence classifies the recurrence pattern of a recurring merchant charge.
type Cadence string

const (
	CadenceMonthly   Cadence = "monthly"
	CadenceWeekly    Cadence = "weekly"
	CadenceIrregular Cadence = "irregular"
)

// PaymentFrequency classifies how often income payments arrive.
type PaymentFrequency string

const (
	FrequencyWeekly    PaymentFrequency = "weekly"
	FrequencyBiweekly  PaymentFrequency = "biweekly"
	FrequencyMonthly   PaymentFrequency = "monthly"
	FrequencyIrregular PaymentFrequency = "irregular"
	FrequencyUnknown   PaymentFrequency = "unknown"
)

// UtilizationTier buckets credit utilization ratios.
type UtilizationTier string

const (
	TierLow      UtilizationTier = "low"
	TierModerate UtilizationTier = "moderate"
	TierHigh     UtilizationTier = "high"
	TierVeryHigh UtilizationTier = "very_high"
)

var (
	ErrFutureReferenceDate = errors.New("reference date is in the future")
	ErrUnsupportedWindow   = errors.New("unsupported window size")
	ErrEmptyUserID         = errors.New("empty user id")
)

// Transaction is one ledger row. Amounts are signed: inflows are
// positive, debits (outflows) are negative.
type Transaction struct {
	ID             string
	AccountID      string
	Date           time.Time
	Amount         float64
	MerchantName   string
	Category       string
	PaymentChannel string
	Pending        bool
}

// IsDebit reports whether the transaction is an outflow.
func (t Transaction) IsDebit() bool {
	return t.Amount < 0
}

// Account is a point-in-time balance row for one of the user's accounts.
// Balance reflects current state; the ledger keeps no historical balance
// log, so snapshots taken at past reference dates are approximate.
type Account struct {
	ID      string
	UserID  string
	Name    string
	Type    string
	Subtype string
	Balance float64
}

// savingsSubtypes are the account subtypes treated as savings-like.
var savingsSubtypes = map[string]bool{
	"savings":      true,
	"money market": true,
	"cd":           true,
	"hsa":          true,
}

// IsSavingsLike reports whether the account subtype is one of the
// savings-like subtypes (savings, money market, CD, HSA).
func (a Account) IsSavingsLike() bool {
	return savingsSubtypes[strings.ToLower(strings.TrimSpace(a.Subtype))]
}

// IsChecking reports whether the account is a checking account.
func (a Account) IsChecking() bool {
	return strings.EqualFold(strings.TrimSpace(a.Subtype), "checking")
}

// Liability is a liability row joined to one of the user's accounts.
type Liability struct {
	AccountID            string
	LiabilityType        string
	APR                  float64
	IsOverdue            bool
	LastPaymentAmount    float64
	MinimumPaymentAmount float64
	LastStatementBalance float64
	NextPaymentDueDate   time.Time
}

// IsCreditCard reports whether the liability row describes a credit card.
func (l Liability) IsCreditCard() bool {
	t := strings.ToLower(strings.TrimSpace(l.LiabilityType))
	return t == "credit" || t == "credit_card" || t == "credit card"
}

// Day returns t truncated to midnight UTC. All window arithmetic is done
// on whole days.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) float64 {
	return Day(b).Sub(Day(a)).Hours() / 24
}

// WindowBounds computes the inclusive [start, end] bounds for a window
// anchored at reference. It rejects reference dates after today and
// window sizes other than 30 or 180 days.
func WindowBounds(reference time.Time, windowDays int) (start, end time.Time, err error) {
	if windowDays != Window30 && windowDays != Window180 {
		return time.Time{}, time.Time{}, ErrUnsupportedWindow
	}
	if err := ValidateReference(reference); err != nil {
		return time.Time{}, time.Time{}, err
	}
	end = Day(reference)
	start = end.AddDate(0, 0, -windowDays)
	return start, end, nil
}

// ValidateReference rejects reference dates strictly after today.
func ValidateReference(reference time.Time) error {
	if Day(reference).After(Day(time.Now())) {
		return ErrFutureReferenceDate
	}
	return nil
}
