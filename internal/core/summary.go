package core

import "time"

// dateLayout renders bare dates; timestamps use RFC 3339.
const dateLayout = "2006-01-02"

// BehavioralSummary is the composite output of all four detectors across
// both analysis windows, plus completeness and fallback metadata. It is
// created on demand; the caller owns persistence.
type BehavioralSummary struct {
	UserID      string
	GeneratedAt time.Time

	Subscriptions30  SubscriptionMetrics
	Subscriptions180 SubscriptionMetrics
	Savings30        SavingsMetrics
	Savings180       SavingsMetrics
	Credit30         CreditMetrics
	Credit180        CreditMetrics
	Income30         IncomeMetrics
	Income180        IncomeMetrics

	DataCompleteness map[string]bool
	FallbacksApplied []string
}

// ToDict converts the summary into a structure of primitive types only
// (numbers, strings, booleans, slices, string-keyed maps), with all dates
// rendered as ISO-8601 strings, so it can cross any serialization
// boundary unchanged.
func (s *BehavioralSummary) ToDict() map[string]any {
	completeness := make(map[string]bool, len(s.DataCompleteness))
	for k, v := range s.DataCompleteness {
		completeness[k] = v
	}
	fallbacks := make([]string, len(s.FallbacksApplied))
	copy(fallbacks, s.FallbacksApplied)

	return map[string]any{
		"user_id":      s.UserID,
		"generated_at": s.GeneratedAt.UTC().Format(time.RFC3339),
		"subscriptions": map[string]any{
			"30d":  s.Subscriptions30.toDict(),
			"180d": s.Subscriptions180.toDict(),
		},
		"savings": map[string]any{
			"30d":  s.Savings30.toDict(),
			"180d": s.Savings180.toDict(),
		},
		"credit": map[string]any{
			"30d":  s.Credit30.toDict(),
			"180d": s.Credit180.toDict(),
		},
		"income": map[string]any{
			"30d":  s.Income30.toDict(),
			"180d": s.Income180.toDict(),
		},
		"metadata": map[string]any{
			"data_completeness": completeness,
			"fallbacks_applied": fallbacks,
		},
	}
}

func (m SubscriptionMetrics) toDict() map[string]any {
	subs := make([]any, 0, len(m.Subscriptions))
	for _, s := range m.Subscriptions {
		subs = append(subs, map[string]any{
			"merchant_name":     s.MerchantName,
			"cadence":           string(s.Cadence),
			"avg_amount":        s.AvgAmount,
			"transaction_count": s.TransactionCount,
			"last_charge_date":  s.LastChargeDate.Format(dateLayout),
			"median_gap_days":   s.MedianGapDays,
		})
	}
	return map[string]any{
		"user_id":                 m.UserID,
		"window_days":             m.WindowDays,
		"reference_date":          m.ReferenceDate.Format(dateLayout),
		"subscriptions":           subs,
		"subscription_count":      m.SubscriptionCount,
		"monthly_recurring_spend": m.MonthlyRecurringSpend,
		"total_spend":             m.TotalSpend,
		"subscription_share":      m.SubscriptionShare,
	}
}

func (m SavingsMetrics) toDict() map[string]any {
	return map[string]any{
		"user_id":               m.UserID,
		"window_days":           m.WindowDays,
		"reference_date":        m.ReferenceDate.Format(dateLayout),
		"has_savings_accounts":  m.HasSavingsAccounts,
		"savings_account_count": m.SavingsAccountCount,
		"total_savings_balance": m.TotalSavingsBalance,
		"net_inflow":            m.NetInflow,
		"savings_growth_rate":   m.SavingsGrowthRate,
		"avg_monthly_expenses":  m.AvgMonthlyExpenses,
		"emergency_fund_months": m.EmergencyFundMonths,
	}
}

func (m CreditMetrics) toDict() map[string]any {
	cards := make([]any, 0, len(m.Cards))
	for _, c := range m.Cards {
		cards = append(cards, map[string]any{
			"account_id":           c.AccountID,
			"balance":              c.Balance,
			"limit":                c.Limit,
			"utilization":          c.Utilization,
			"tier":                 string(c.Tier),
			"minimum_payment_only": c.MinimumPaymentOnly,
			"is_overdue":           c.IsOverdue,
			"apr":                  c.APR,
		})
	}
	return map[string]any{
		"user_id":                    m.UserID,
		"window_days":                m.WindowDays,
		"reference_date":             m.ReferenceDate.Format(dateLayout),
		"num_credit_cards":           m.NumCreditCards,
		"cards":                      cards,
		"total_balance":              m.TotalBalance,
		"total_limit":                m.TotalLimit,
		"aggregate_utilization":      m.AggregateUtilization,
		"high_utilization_count":     m.HighUtilizationCount,
		"minimum_payment_only_count": m.MinimumPaymentOnlyCount,
		"has_interest_charges":       m.HasInterestCharges,
		"any_overdue":                m.AnyOverdue,
	}
}

func (m IncomeMetrics) toDict() map[string]any {
	return map[string]any{
		"user_id":                 m.UserID,
		"window_days":             m.WindowDays,
		"reference_date":          m.ReferenceDate.Format(dateLayout),
		"num_income_transactions": m.NumIncomeTransactions,
		"payment_frequency":       string(m.PaymentFrequency),
		"has_regular_income":      m.HasRegularIncome,
		"avg_income_amount":       m.AvgIncomeAmount,
		"total_income":            m.TotalIncome,
		"avg_monthly_income":      m.AvgMonthlyIncome,
		"income_variability_cv":   m.IncomeVariabilityCV,
		"cash_flow_buffer_months": m.CashFlowBufferMonths,
		"median_gap_days":         m.MedianGapDays,
	}
}
