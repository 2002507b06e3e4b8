package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ErrInvalidLimits is returned by Ordered for negative concurrency or backlog.
var ErrInvalidLimits = errors.New("pipeline: concurrency and backlog must not be negative")

// OrderedConfig bounds an Ordered stage.
type OrderedConfig struct {
	// Concurrency is the maximum number of fn invocations in flight.
	// Zero selects runtime.GOMAXPROCS(0).
	Concurrency int
	// Backlog is the maximum number of indices submitted but not yet
	// delivered. Zero selects 3 × Concurrency; values below Concurrency
	// are raised to Concurrency.
	Backlog int
	// Observe, when set, is called with the scheduler state after every
	// transition. It runs under the scheduler lock and must not block or
	// call back into the iterator.
	Observe func(OrderedState)
}

// Normalize validates the limits and fills in defaults.
func (c OrderedConfig) Normalize() (OrderedConfig, error) {
	if c.Concurrency < 0 || c.Backlog < 0 {
		return c, fmt.Errorf("%w (concurrency=%d, backlog=%d)", ErrInvalidLimits, c.Concurrency, c.Backlog)
	}
	if c.Concurrency == 0 {
		c.Concurrency = runtime.GOMAXPROCS(0)
	}
	if c.Backlog == 0 {
		c.Backlog = 3 * c.Concurrency
	}
	if c.Backlog < c.Concurrency {
		c.Backlog = c.Concurrency
	}
	return c, nil
}

// OrderedState is a snapshot of an Ordered stage's scheduler.
type OrderedState struct {
	// Cursor is the next index the consumer will receive.
	Cursor int
	// Frontier is the next index not yet submitted.
	Frontier int
	// Outstanding is the number of submitted, unresolved invocations.
	Outstanding int
	// Buffered is the number of resolved results awaiting delivery.
	Buffered int
	// Aborted reports whether a failure has frozen the frontier.
	Aborted bool
}

// Indexed pairs a value with its position in the source sequence.
type Indexed[T any] struct {
	Index int
	Value T
}

// IndexError reports the failure that terminated an Ordered stage.
type IndexError struct {
	Index int
	Err   error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("pipeline: index %d: %v", e.Index, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// Ordered applies fn to each source value on a fixed pool of
// cfg.Concurrency workers and yields the results in source order.
//
// At most cfg.Concurrency invocations run at once and at most cfg.Backlog
// indices are submitted ahead of the consumer. The first failure freezes
// submission: invocations for later indices are canceled and their results
// discarded, earlier indices still complete and are delivered, and the
// consumer then receives an *IndexError for the failed index.
//
// Next must not be called concurrently. fn receives a context that is
// canceled when its result can no longer be delivered.
func Ordered[I, O any](p *Pipeline[I], cfg OrderedConfig, fn func(context.Context, int, I) (O, error)) (*Pipeline[Indexed[O]], error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	return &Pipeline[Indexed[O]]{
		create: func(ctx context.Context) Iterator[Indexed[O]] {
			return newOrderedIter(ctx, p.create(ctx), cfg, fn)
		},
	}, nil
}

type orderedJob[I any] struct {
	ctx   context.Context
	index int
	value I
}

type orderedIter[I, O any] struct {
	cfg    OrderedConfig
	fn     func(context.Context, int, I) (O, error)
	source Iterator[I]
	ctx    context.Context
	cancel context.CancelFunc

	// work never blocks a sender: queued plus running jobs <= outstanding <= Concurrency.
	work chan orderedJob[I]
	// wake carries at most one pending state-change signal for the consumer.
	wake chan struct{}

	mu          sync.Mutex
	ready       map[int]O
	inflight    map[int]context.CancelFunc
	cursor      int
	frontier    int
	outstanding int
	exhausted   bool
	failIndex   int
	failErr     error
	stopped     bool
	terminal    error
	done        bool
}

func newOrderedIter[I, O any](ctx context.Context, source Iterator[I], cfg OrderedConfig, fn func(context.Context, int, I) (O, error)) *orderedIter[I, O] {
	runCtx, cancel := context.WithCancel(ctx)
	it := &orderedIter[I, O]{
		cfg:      cfg,
		fn:       fn,
		source:   source,
		ctx:      runCtx,
		cancel:   cancel,
		work:     make(chan orderedJob[I], cfg.Concurrency),
		wake:     make(chan struct{}, 1),
		ready:    make(map[int]O, cfg.Backlog),
		inflight: make(map[int]context.CancelFunc, cfg.Concurrency),
	}
	for range cfg.Concurrency {
		go it.worker()
	}

	it.mu.Lock()
	it.admit()
	it.mu.Unlock()
	return it
}

func (it *orderedIter[I, O]) worker() {
	for job := range it.work {
		var (
			val O
			err error
		)
		if err = job.ctx.Err(); err == nil {
			val, err = it.fn(job.ctx, job.index, job.value)
		}
		it.complete(job.index, val, err)
	}
}

// admit submits source values while both ceilings allow. Caller holds mu.
func (it *orderedIter[I, O]) admit() {
	for !it.stopped && !it.exhausted && it.failErr == nil &&
		it.outstanding < it.cfg.Concurrency &&
		it.frontier-it.cursor < it.cfg.Backlog {

		val, ok, err := it.source.Next(it.ctx)
		if err != nil {
			it.fail(it.frontier, err)
			break
		}
		if !ok {
			it.exhausted = true
			break
		}

		jobCtx, cancel := context.WithCancel(it.ctx)
		it.inflight[it.frontier] = cancel
		it.work <- orderedJob[I]{ctx: jobCtx, index: it.frontier, value: val}
		it.frontier++
		it.outstanding++
	}
	it.observe()
}

// complete records the outcome of one invocation.
func (it *orderedIter[I, O]) complete(index int, val O, err error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if cancel, ok := it.inflight[index]; ok {
		cancel()
		delete(it.inflight, index)
	}
	it.outstanding--

	switch {
	case it.stopped:
	case it.failErr != nil && index > it.failIndex:
	case err != nil:
		it.fail(index, err)
	default:
		it.ready[index] = val
	}

	it.admit()
	it.signal()
}

// fail freezes the frontier and cancels work that can no longer be
// delivered. A failure at a lower index supersedes an earlier one.
// Caller holds mu.
func (it *orderedIter[I, O]) fail(index int, err error) {
	if it.failErr != nil && index >= it.failIndex {
		return
	}
	it.failIndex = index
	it.failErr = err
	for i, cancel := range it.inflight {
		if i > index {
			cancel()
		}
	}
	for i := range it.ready {
		if i > index {
			delete(it.ready, i)
		}
	}
	it.signal()
}

func (it *orderedIter[I, O]) signal() {
	select {
	case it.wake <- struct{}{}:
	default:
	}
}

func (it *orderedIter[I, O]) observe() {
	if it.cfg.Observe == nil {
		return
	}
	it.cfg.Observe(OrderedState{
		Cursor:      it.cursor,
		Frontier:    it.frontier,
		Outstanding: it.outstanding,
		Buffered:    len(it.ready),
		Aborted:     it.failErr != nil,
	})
}

// stop releases the workers. Caller holds mu.
func (it *orderedIter[I, O]) stop() {
	if it.stopped {
		return
	}
	it.stopped = true
	it.cancel()
	close(it.work)
}

// finish records a terminal state. Caller holds mu.
func (it *orderedIter[I, O]) finish(err error) {
	it.done = true
	it.terminal = err
	it.stop()
}

func (it *orderedIter[I, O]) Next(ctx context.Context) (Indexed[O], bool, error) {
	var zero Indexed[O]
	for {
		it.mu.Lock()
		if it.done {
			err := it.terminal
			it.mu.Unlock()
			return zero, false, err
		}
		if val, ok := it.ready[it.cursor]; ok {
			delete(it.ready, it.cursor)
			out := Indexed[O]{Index: it.cursor, Value: val}
			it.cursor++
			it.admit()
			it.mu.Unlock()
			return out, true, nil
		}
		if it.failErr != nil && it.cursor == it.failIndex {
			err := &IndexError{Index: it.failIndex, Err: it.failErr}
			it.finish(err)
			it.mu.Unlock()
			return zero, false, err
		}
		if it.exhausted && it.cursor == it.frontier {
			it.finish(nil)
			it.mu.Unlock()
			return zero, false, nil
		}
		it.mu.Unlock()

		select {
		case <-it.wake:
		case <-ctx.Done():
			return zero, false, ctx.Err()
		}
	}
}

func (it *orderedIter[I, O]) Close() error {
	it.mu.Lock()
	if !it.done {
		it.finish(context.Canceled)
	}
	it.mu.Unlock()
	return it.source.Close()
}
