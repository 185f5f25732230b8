package signals

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reena96/spendsense-sub001/internal/core"
	logf "github.com/reena96/spendsense-sub001/internal/log"
)

// SummaryBuilder runs all four detectors across both windows and
// aggregates their output into one BehavioralSummary.
type SummaryBuilder struct {
	subscriptions *SubscriptionDetector
	savings       *SavingsDetector
	credit        *CreditDetector
	income        *IncomeDetector
}

// NewSummaryBuilder wires the four detectors over a shared windowing
// primitive backed by the given store.
func NewSummaryBuilder(store Store) *SummaryBuilder {
	windows := NewWindows(store)
	return &SummaryBuilder{
		subscriptions: NewSubscriptionDetector(windows),
		savings:       NewSavingsDetector(windows),
		credit:        NewCreditDetector(windows),
		income:        NewIncomeDetector(windows),
	}
}

// Build computes the behavioral summary for one (user, reference date).
// The 8 detector-by-window invocations are independent pure computations
// over disjoint reads and run concurrently; each result lands in a
// distinct named slot, so completion order cannot affect the output.
// A failing invocation is substituted with that detector's canonical
// default and recorded in FallbacksApplied rather than propagated.
func (b *SummaryBuilder) Build(ctx context.Context, userID string, reference time.Time) *core.BehavioralSummary {
	var (
		sub30, sub180       detectorCall[core.SubscriptionMetrics]
		sav30, sav180       detectorCall[core.SavingsMetrics]
		credit30, credit180 detectorCall[core.CreditMetrics]
		income30, income180 detectorCall[core.IncomeMetrics]
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, windowDays := range []int{core.Window30, core.Window180} {
		windowDays := windowDays
		subSlot, savSlot, credSlot, incSlot := &sub30, &sav30, &credit30, &income30
		if windowDays == core.Window180 {
			subSlot, savSlot, credSlot, incSlot = &sub180, &sav180, &credit180, &income180
		}

		g.Go(func() error {
			*subSlot = runIsolated(core.DetectorSubscriptions,
				core.EmptySubscriptionMetrics(userID, windowDays, reference),
				func() (core.SubscriptionMetrics, error) {
					return b.subscriptions.Detect(gctx, userID, reference, windowDays)
				})
			return nil
		})
		g.Go(func() error {
			*savSlot = runIsolated(core.DetectorSavings,
				core.EmptySavingsMetrics(userID, windowDays, reference),
				func() (core.SavingsMetrics, error) {
					return b.savings.Detect(gctx, userID, reference, windowDays)
				})
			return nil
		})
		g.Go(func() error {
			*credSlot = runIsolated(core.DetectorCredit,
				core.EmptyCreditMetrics(userID, windowDays, reference),
				func() (core.CreditMetrics, error) {
					return b.credit.Detect(gctx, userID, reference, windowDays)
				})
			return nil
		})
		g.Go(func() error {
			*incSlot = runIsolated(core.DetectorIncome,
				core.EmptyIncomeMetrics(userID, windowDays, reference),
				func() (core.IncomeMetrics, error) {
					return b.income.Detect(gctx, userID, reference, windowDays)
				})
			return nil
		})
	}
	_ = g.Wait() // detector failures become fallbacks, never group errors

	summary := &core.BehavioralSummary{
		UserID:           userID,
		GeneratedAt:      time.Now().UTC(),
		Subscriptions30:  sub30.value,
		Subscriptions180: sub180.value,
		Savings30:        sav30.value,
		Savings180:       sav180.value,
		Credit30:         credit30.value,
		Credit180:        credit180.value,
		Income30:         income30.value,
		Income180:        income180.value,
		DataCompleteness: map[string]bool{
			core.DetectorSubscriptions: sub30.value.SubscriptionCount > 0 || sub180.value.SubscriptionCount > 0,
			core.DetectorSavings:       sav30.value.HasSavingsAccounts || sav180.value.HasSavingsAccounts,
			core.DetectorCredit:        credit30.value.NumCreditCards > 0 || credit180.value.NumCreditCards > 0,
			core.DetectorIncome:        income30.value.NumIncomeTransactions > 0 || income180.value.NumIncomeTransactions > 0,
		},
		FallbacksApplied: []string{},
	}

	// Fixed detector order keeps the fallback list deterministic across
	// completion orders; a detector appears once even if both windows
	// fell back.
	fallbackPairs := []struct {
		name     string
		fellBack bool
		err      error
	}{
		{core.DetectorSubscriptions, sub30.fellBack() || sub180.fellBack(), firstErr(sub30.err, sub180.err)},
		{core.DetectorSavings, sav30.fellBack() || sav180.fellBack(), firstErr(sav30.err, sav180.err)},
		{core.DetectorCredit, credit30.fellBack() || credit180.fellBack(), firstErr(credit30.err, credit180.err)},
		{core.DetectorIncome, income30.fellBack() || income180.fellBack(), firstErr(income30.err, income180.err)},
	}
	for _, p := range fallbackPairs {
		if !p.fellBack {
			continue
		}
		summary.FallbacksApplied = append(summary.FallbacksApplied, p.name)
		slog.WarnContext(ctx, "Detector fell back to canonical default",
			logf.FieldComponent, logf.ComponentSignals,
			logf.FieldDetector, p.name,
			logf.FieldUserID, userID,
			logf.FieldError, p.err)
	}

	return summary
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
