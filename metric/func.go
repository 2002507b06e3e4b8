package metric

import (
	"context"

	"github.com/kbukum/getfnative/sweep"
)

// Func computes the error value of one candidate in process.
type Func func(ctx context.Context, c sweep.Candidate) (float64, error)

// FuncProducer runs a Func on its own goroutine per submission.
type FuncProducer struct {
	fn Func
}

// NewFuncProducer wraps fn as a Producer.
func NewFuncProducer(fn Func) *FuncProducer {
	return &FuncProducer{fn: fn}
}

// Submit implements sweep.Producer.
func (p *FuncProducer) Submit(ctx context.Context, c sweep.Candidate) sweep.Handle {
	f := newFuture()
	go func() {
		f.resolve(p.fn(ctx, c))
	}()
	return f
}
