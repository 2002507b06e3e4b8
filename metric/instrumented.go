package metric

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/getfnative/observability"
	"github.com/kbukum/getfnative/sweep"
)

// Instrumented adds a span and sweep metrics to every submission.
type Instrumented struct {
	next    sweep.Producer
	metrics *observability.SweepMetrics
}

// Instrument wraps next. metrics may be nil for tracing only.
func Instrument(next sweep.Producer, metrics *observability.SweepMetrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

// Submit implements sweep.Producer.
func (p *Instrumented) Submit(ctx context.Context, c sweep.Candidate) sweep.Handle {
	ctx, span := observability.StartSpan(ctx, observability.SpanCandidate, trace.WithAttributes(
		attribute.Int(observability.AttrIndex, c.Index),
		attribute.Float64(observability.AttrSrcHeight, c.Height),
	))
	if p.metrics != nil {
		p.metrics.RecordSubmit(ctx)
	}
	return &instrumentedHandle{
		next:    p.next.Submit(ctx, c),
		ctx:     ctx,
		span:    span,
		metrics: p.metrics,
		start:   time.Now(),
	}
}

type instrumentedHandle struct {
	next    sweep.Handle
	ctx     context.Context
	span    trace.Span
	metrics *observability.SweepMetrics
	start   time.Time
	once    sync.Once
}

func (h *instrumentedHandle) Wait(ctx context.Context) (float64, error) {
	val, err := h.next.Wait(ctx)
	h.once.Do(func() {
		if err != nil {
			observability.SetSpanError(h.ctx, err)
		} else {
			h.span.SetAttributes(attribute.Float64(observability.AttrValue, val))
		}
		h.span.End()
		if h.metrics != nil {
			h.metrics.RecordResult(h.ctx, time.Since(h.start), err)
		}
	})
	return val, err
}
