package signals

import (
	"context"
	"math"
	"testing"

	"github.com/reena96/spendsense-sub001/internal/core"
)

func TestSavingsDetectorNoAccounts(t *testing.T) {
	detector := NewSavingsDetector(NewWindows(&fakeStore{}))

	metrics, err := detector.Detect(context.Background(), "u-none", date(2025, 7, 1), core.Window30)
	if err != nil {
		t.Fatalf("zero accounts must not error: %v", err)
	}
	if metrics.HasSavingsAccounts {
		t.Error("has_savings_accounts must be false")
	}
	for name, v := range map[string]float64{
		"total_savings_balance": metrics.TotalSavingsBalance,
		"net_inflow":            metrics.NetInflow,
		"savings_growth_rate":   metrics.SavingsGrowthRate,
		"avg_monthly_expenses":  metrics.AvgMonthlyExpenses,
		"emergency_fund_months": metrics.EmergencyFundMonths,
	} {
		if v != 0 {
			t.Errorf("%s = %f, want 0", name, v)
		}
	}
}

func TestSavingsDetectorChecksOnlySubtypes(t *testing.T) {
	store := &fakeStore{
		accounts: []core.Account{
			{ID: "a1", UserID: "u1", Type: "depository", Subtype: "checking", Balance: 5000},
			{ID: "a2", UserID: "u1", Type: "credit", Subtype: "credit card", Balance: -300},
		},
	}
	detector := NewSavingsDetector(NewWindows(store))

	metrics, err := detector.Detect(context.Background(), "u1", date(2025, 7, 1), core.Window30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.HasSavingsAccounts {
		t.Error("checking and credit accounts must not count as savings")
	}
}

func TestSavingsDetectorInflowAndCoverage(t *testing.T) {
	reference := date(2025, 7, 1)
	store := &fakeStore{
		accounts: []core.Account{
			{ID: "chk", UserID: "u1", Type: "depository", Subtype: "checking", Balance: 2000},
			{ID: "sav", UserID: "u1", Type: "depository", Subtype: "savings", Balance: 3000},
		},
		transactions: []core.Transaction{
			// Two transfers into savings, debits on the checking leg.
			{ID: "x1", AccountID: "chk", Date: date(2025, 6, 10), Amount: -200, Category: "Transfer, Savings"},
			{ID: "x2", AccountID: "chk", Date: date(2025, 6, 24), Amount: -300, Category: "Transfer, Savings"},
			// Ordinary spending.
			charge("g1", "chk", date(2025, 6, 15), 500, "Grocer"),
			charge("g2", "chk", date(2025, 6, 28), 500, "Grocer"),
			// A deposit must not count toward expenses.
			deposit("p1", "chk", date(2025, 6, 20), 1500, "Income, Payroll"),
		},
	}
	detector := NewSavingsDetector(NewWindows(store))

	metrics, err := detector.Detect(context.Background(), "u1", reference, core.Window30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !metrics.HasSavingsAccounts || metrics.SavingsAccountCount != 1 {
		t.Fatalf("expected one savings account, got %+v", metrics)
	}
	if metrics.TotalSavingsBalance != 3000 {
		t.Errorf("total_savings_balance = %f, want 3000", metrics.TotalSavingsBalance)
	}
	if metrics.NetInflow != 500 {
		t.Errorf("net_inflow = %f, want 500", metrics.NetInflow)
	}
	// start = 3000 - 500 = 2500; growth = 500/2500.
	if math.Abs(metrics.SavingsGrowthRate-0.2) > 1e-9 {
		t.Errorf("savings_growth_rate = %f, want 0.2", metrics.SavingsGrowthRate)
	}
	// Debits: 200+300+500+500 = 1500 over a 30-day window.
	if math.Abs(metrics.AvgMonthlyExpenses-1500) > 1e-9 {
		t.Errorf("avg_monthly_expenses = %f, want 1500", metrics.AvgMonthlyExpenses)
	}
	if math.Abs(metrics.EmergencyFundMonths-2.0) > 1e-9 {
		t.Errorf("emergency_fund_months = %f, want 2.0", metrics.EmergencyFundMonths)
	}
}

func TestApproximateGrowthRate(t *testing.T) {
	cases := []struct {
		name      string
		current   float64
		netInflow float64
		want      float64
	}{
		{"normal growth", 3000, 500, 0.2},
		{"flat", 3000, 0, 0},
		{"start nonpositive, current positive capped", 400, 500, 1.0},
		{"start and current nonpositive", 0, 0, 0},
		{"negative current", -100, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := approximateGrowthRate(tc.current, tc.netInflow)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("approximateGrowthRate(%f, %f) = %f, want %f", tc.current, tc.netInflow, got, tc.want)
			}
		})
	}
}

func TestIsSavingsTransfer(t *testing.T) {
	yes := []string{"Transfer, Savings", "TRANSFER_IN_SAVINGS", "transfer savings"}
	no := []string{"Transfer, Checking", "Savings interest", "Food and Drink"}
	for _, c := range yes {
		if !isSavingsTransfer(core.Transaction{Category: c}) {
			t.Errorf("%q should be a savings transfer", c)
		}
	}
	for _, c := range no {
		if isSavingsTransfer(core.Transaction{Category: c}) {
			t.Errorf("%q should not be a savings transfer", c)
		}
	}
}
