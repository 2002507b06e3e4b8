package resilience

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"time"
)

// Bulkhead errors.
var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies the bulkhead in logs and metrics.
	Name string
	// MaxConcurrent is the number of slots. Zero selects runtime.NumCPU().
	MaxConcurrent int
	// MaxWait bounds the wait for a slot. Zero waits until ctx is done;
	// a negative value rejects immediately when full.
	MaxWait time.Duration
	// OnAcquire and OnRelease receive the number of slots in use after
	// the transition.
	OnAcquire func(name string, inUse int)
	OnRelease func(name string, inUse int)
	// OnReject receives the reason a call was turned away.
	OnReject func(name string, err error)
}

// Bulkhead is a counting semaphore around a shared resource.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}
	inUse  atomic.Int64
	peak   atomic.Int64
}

// NewBulkhead creates a bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = runtime.NumCPU()
	}
	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Execute runs fn while holding a slot.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.acquire(ctx); err != nil {
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name, err)
		}
		return err
	}
	defer b.release()
	return fn()
}

// ExecuteWithResult runs fn while holding a slot and returns its value.
func ExecuteWithResult[T any](b *Bulkhead, ctx context.Context, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case b.sem <- struct{}{}:
		b.acquired()
		return nil
	default:
	}

	var timeout <-chan time.Time
	switch {
	case b.config.MaxWait < 0:
		return ErrBulkheadFull
	case b.config.MaxWait > 0:
		timer := time.NewTimer(b.config.MaxWait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case b.sem <- struct{}{}:
		b.acquired()
		return nil
	case <-timeout:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) acquired() {
	n := b.inUse.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if b.config.OnAcquire != nil {
		b.config.OnAcquire(b.config.Name, int(n))
	}
}

func (b *Bulkhead) release() {
	n := b.inUse.Add(-1)
	<-b.sem
	if b.config.OnRelease != nil {
		b.config.OnRelease(b.config.Name, int(n))
	}
}

// Name returns the configured name.
func (b *Bulkhead) Name() string { return b.config.Name }

// Available returns the number of free slots.
func (b *Bulkhead) Available() int {
	return b.config.MaxConcurrent - len(b.sem)
}

// InUse returns the number of held slots.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// Peak returns the highest number of slots held at once.
func (b *Bulkhead) Peak() int {
	return int(b.peak.Load())
}

// MaxConcurrent returns the slot count.
func (b *Bulkhead) MaxConcurrent() int {
	return b.config.MaxConcurrent
}
