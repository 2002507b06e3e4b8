package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunTracker spans and measures one sweep.
type RunTracker struct {
	RunID     string
	Total     int
	StartTime time.Time
	Metrics   *SweepMetrics
	span      trace.Span
}

// StartRun opens the sweep span. metrics may be nil.
func StartRun(ctx context.Context, runID string, total int, metrics *SweepMetrics) (context.Context, *RunTracker) {
	ctx, span := StartSpan(ctx, SpanSweep, trace.WithAttributes(
		attribute.String(AttrRunID, runID),
		attribute.Int(AttrTotal, total),
	))
	return ctx, &RunTracker{
		RunID:     runID,
		Total:     total,
		StartTime: time.Now(),
		Metrics:   metrics,
		span:      span,
	}
}

// End closes the sweep span with the delivered count and terminal error.
func (r *RunTracker) End(ctx context.Context, completed int, err error) {
	duration := r.Duration()
	if err != nil {
		r.span.RecordError(err)
	}
	r.span.SetAttributes(
		attribute.Int(AttrCompleted, completed),
		attribute.String(AttrStatus, statusOf(err)),
	)
	r.span.End()

	if r.Metrics != nil {
		r.Metrics.RecordRun(ctx, duration, err)
	}
}

// Duration returns the time since the run started.
func (r *RunTracker) Duration() time.Duration {
	return time.Since(r.StartTime)
}
