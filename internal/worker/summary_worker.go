package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reena96/spendsense-sub001/internal/amqp"
	"github.com/reena96/spendsense-sub001/internal/cache"
	"github.com/reena96/spendsense-sub001/internal/core"
	logf "github.com/reena96/spendsense-sub001/internal/log"
	"github.com/reena96/spendsense-sub001/internal/signals"
)

// Publisher is the outbound side of the worker.
type Publisher interface {
	PublishSummaryReady(ctx context.Context, msg *amqp.SummaryReadyMessage) error
}

// SummaryWorker consumes summary requests, runs the signals pipeline,
// and publishes the serialized result. The worker owns transmission;
// the pipeline itself never persists or publishes anything. A nil
// cache disables memoization.
type SummaryWorker struct {
	builder   *signals.SummaryBuilder
	publisher Publisher
	summaries *cache.SummaryCache
}

func NewSummaryWorker(builder *signals.SummaryBuilder, publisher Publisher, summaries *cache.SummaryCache) *SummaryWorker {
	return &SummaryWorker{
		builder:   builder,
		publisher: publisher,
		summaries: summaries,
	}
}

// HandleSummaryRequest processes a single summary request message.
func (w *SummaryWorker) HandleSummaryRequest(ctx context.Context, msg *amqp.SummaryRequestMessage) error {
	reference, err := parseReference(msg.ReferenceDate)
	if err != nil {
		return fmt.Errorf("parse reference date: %w", err)
	}

	slog.InfoContext(ctx, "Computing behavioral summary",
		logf.FieldComponent, logf.ComponentWorker,
		logf.FieldUserID, msg.UserID,
		logf.FieldReferenceDate, reference.Format("2006-01-02"))

	summary := w.lookupOrBuild(ctx, msg.UserID, reference)

	if len(summary.FallbacksApplied) > 0 {
		slog.WarnContext(ctx, "Summary computed with fallbacks",
			logf.FieldComponent, logf.ComponentWorker,
			logf.FieldUserID, msg.UserID,
			logf.FieldFallbacks, summary.FallbacksApplied)
	}

	ready := amqp.NewSummaryReadyMessage(summary.UserID, summary.GeneratedAt, summary.ToDict())
	if err := w.publisher.PublishSummaryReady(ctx, ready); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}

	return nil
}

// lookupOrBuild returns a cached summary when one is fresh, building
// and caching otherwise. Summaries with fallbacks are not cached so
// transient store failures do not pin degraded results.
func (w *SummaryWorker) lookupOrBuild(ctx context.Context, userID string, reference time.Time) *core.BehavioralSummary {
	if w.summaries == nil {
		return w.builder.Build(ctx, userID, reference)
	}

	key := cache.Key(userID, reference)
	if cached, ok := w.summaries.Get(key); ok {
		slog.DebugContext(ctx, "Summary cache hit", logf.FieldComponent, logf.ComponentWorker, logf.FieldUserID, userID)
		return cached
	}

	summary := w.builder.Build(ctx, userID, reference)
	if len(summary.FallbacksApplied) == 0 {
		w.summaries.Set(key, summary)
	}
	return summary
}

// parseReference reads an ISO-8601 date, defaulting to today when empty.
func parseReference(value string) (time.Time, error) {
	if value == "" {
		return core.Day(time.Now()), nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
