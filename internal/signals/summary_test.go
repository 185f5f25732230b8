package signals

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/reena96/spendsense-sub001/internal/core"
)

// richStore returns a user with signal in all four detectors.
func richStore(reference time.Time) *fakeStore {
	store := &fakeStore{
		accounts: []core.Account{
			{ID: "chk", UserID: "u1", Type: "depository", Subtype: "checking", Balance: 3000},
			{ID: "sav", UserID: "u1", Type: "depository", Subtype: "savings", Balance: 5000},
			{ID: "cc1", UserID: "u1", Type: "credit", Subtype: "credit card", Balance: -400},
		},
		liabilities: map[string][]core.Liability{
			"u1": {{
				AccountID:            "cc1",
				LiabilityType:        "credit",
				APR:                  19.99,
				LastPaymentAmount:    200,
				MinimumPaymentAmount: 40,
				LastStatementBalance: 400,
			}},
		},
	}
	// Monthly subscription.
	for i := 0; i < 6; i++ {
		store.transactions = append(store.transactions,
			charge(id("sub", i), "chk", reference.AddDate(0, 0, -3-30*i), 15.99, "Netflix"))
	}
	// Biweekly payroll.
	for i := 0; i < 8; i++ {
		store.transactions = append(store.transactions,
			deposit(id("pay", i), "chk", reference.AddDate(0, 0, -1-14*i), 2100, "Income, Payroll"))
	}
	// Savings transfers.
	for i := 0; i < 4; i++ {
		store.transactions = append(store.transactions, core.Transaction{
			ID: id("xfer", i), AccountID: "chk",
			Date:   reference.AddDate(0, 0, -5-30*i),
			Amount: -250, Category: "Transfer, Savings",
		})
	}
	return store
}

func id(prefix string, i int) string {
	return prefix + "-" + string(rune('a'+i))
}

func TestSummaryBuilderCompleteSignals(t *testing.T) {
	reference := date(2025, 7, 1)
	builder := NewSummaryBuilder(richStore(reference))

	summary := builder.Build(context.Background(), "u1", reference)

	if len(summary.FallbacksApplied) != 0 {
		t.Fatalf("fallbacks_applied = %v, want none", summary.FallbacksApplied)
	}
	for detector, complete := range summary.DataCompleteness {
		if !complete {
			t.Errorf("data_completeness[%s] = false, want true", detector)
		}
	}
	if summary.Subscriptions30.SubscriptionCount != 1 {
		t.Errorf("30d subscription_count = %d, want 1", summary.Subscriptions30.SubscriptionCount)
	}
	if summary.Income180.PaymentFrequency != core.FrequencyBiweekly {
		t.Errorf("180d payment_frequency = %q, want biweekly", summary.Income180.PaymentFrequency)
	}
	if summary.Credit30.NumCreditCards != 1 {
		t.Errorf("30d num_credit_cards = %d, want 1", summary.Credit30.NumCreditCards)
	}
	if !summary.Savings180.HasSavingsAccounts {
		t.Error("180d has_savings_accounts should be true")
	}
	if summary.Subscriptions180.WindowDays != core.Window180 {
		t.Errorf("window_days = %d, want 180", summary.Subscriptions180.WindowDays)
	}
}

func TestSummaryBuilderFutureDateAllFallback(t *testing.T) {
	future := core.Day(time.Now()).AddDate(0, 0, 5)
	builder := NewSummaryBuilder(richStore(date(2025, 7, 1)))

	summary := builder.Build(context.Background(), "u1", future)

	want := []string{
		core.DetectorSubscriptions,
		core.DetectorSavings,
		core.DetectorCredit,
		core.DetectorIncome,
	}
	got := append([]string(nil), summary.FallbacksApplied...)
	sort.Strings(got)
	sortedWant := append([]string(nil), want...)
	sort.Strings(sortedWant)
	if !reflect.DeepEqual(got, sortedWant) {
		t.Fatalf("fallbacks_applied = %v, want all four detectors", summary.FallbacksApplied)
	}
	for detector, complete := range summary.DataCompleteness {
		if complete {
			t.Errorf("data_completeness[%s] = true, want false on all-fallback", detector)
		}
	}
	if summary.Income30.PaymentFrequency != core.FrequencyUnknown {
		t.Errorf("fallback income frequency = %q, want unknown", summary.Income30.PaymentFrequency)
	}
}

func TestSummaryBuilderStoreFailureFallsBack(t *testing.T) {
	store := richStore(date(2025, 7, 1))
	store.failReads = true
	builder := NewSummaryBuilder(store)

	summary := builder.Build(context.Background(), "u1", date(2025, 7, 1))

	if len(summary.FallbacksApplied) != 4 {
		t.Fatalf("fallbacks_applied = %v, want all four detectors", summary.FallbacksApplied)
	}
	// Fallback values are the canonical defaults, not zero structs.
	if summary.Savings30.WindowDays != core.Window30 {
		t.Errorf("fallback savings window_days = %d, want 30", summary.Savings30.WindowDays)
	}
}

func TestSummaryBuilderPure(t *testing.T) {
	reference := date(2025, 7, 1)
	builder := NewSummaryBuilder(richStore(reference))

	first := builder.Build(context.Background(), "u1", reference)
	second := builder.Build(context.Background(), "u1", reference)

	a := first.ToDict()
	b := second.ToDict()
	delete(a, "generated_at")
	delete(b, "generated_at")
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs over unchanged data must yield identical metrics")
	}
}

func TestSummaryToDictRoundTrip(t *testing.T) {
	reference := date(2025, 7, 1)
	builder := NewSummaryBuilder(richStore(reference))
	summary := builder.Build(context.Background(), "u1", reference)

	encoded, err := json.Marshal(summary.ToDict())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	reencoded, err := json.Marshal(decoded)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if string(encoded) != string(reencoded) {
		t.Error("ToDict output must survive a JSON round trip unchanged")
	}

	metadata, ok := decoded["metadata"].(map[string]any)
	if !ok {
		t.Fatal("metadata missing or not an object")
	}
	completeness, ok := metadata["data_completeness"].(map[string]any)
	if !ok || len(completeness) != 4 {
		t.Fatalf("data_completeness should cover all four detectors, got %v", metadata["data_completeness"])
	}
	subs, ok := decoded["subscriptions"].(map[string]any)
	if !ok {
		t.Fatal("subscriptions missing or not an object")
	}
	for _, window := range []string{"30d", "180d"} {
		if _, ok := subs[window]; !ok {
			t.Errorf("subscriptions missing %s slot", window)
		}
	}
	slot := subs["30d"].(map[string]any)
	if _, ok := slot["reference_date"].(string); !ok {
		t.Error("reference_date should serialize as an ISO-8601 string")
	}
}
