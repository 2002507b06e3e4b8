package metric

import (
	"context"

	"github.com/kbukum/getfnative/sweep"
)

// future is a Handle resolved exactly once by its producer goroutine.
type future struct {
	done chan struct{}
	val  float64
	err  error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

func (f *future) resolve(val float64, err error) {
	f.val, f.err = val, err
	close(f.done)
}

func (f *future) Wait(ctx context.Context) (float64, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Resolved returns a Handle that is already complete.
func Resolved(val float64, err error) sweep.Handle {
	f := newFuture()
	f.resolve(val, err)
	return f
}
