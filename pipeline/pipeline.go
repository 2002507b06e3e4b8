package pipeline

import "context"

// Iterator yields a stream of values one pull at a time.
type Iterator[T any] interface {
	// Next returns the next value, or (zero, false, nil) once exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases the iterator and everything upstream of it.
	Close() error
}

// Pipeline is a lazy description of a stream. Each run builds a fresh
// iterator chain, so a pipeline can be run again but a running iterator
// is never rewound.
type Pipeline[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// Runnable is a pipeline bound to its sink.
type Runnable struct {
	run func(ctx context.Context) error
}

// Run pulls until the stream ends, the sink fails or ctx is done.
func (r *Runnable) Run(ctx context.Context) error {
	return r.run(ctx)
}

// FromSlice streams items in order.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] {
			return &sliceIter[T]{items: items}
		},
	}
}

// Drain returns a Runnable that hands every value to sink.
func Drain[T any](p *Pipeline[T], sink func(context.Context, T) error) *Runnable {
	return &Runnable{
		run: func(ctx context.Context) error {
			it := p.create(ctx)
			defer it.Close()
			for {
				v, ok, err := it.Next(ctx)
				if err != nil || !ok {
					return err
				}
				if err := sink(ctx, v); err != nil {
					return err
				}
			}
		},
	}
}

// Collect runs p and returns its values. On error the values pulled so
// far are returned with it.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	var out []T
	err := Drain(p, func(_ context.Context, v T) error {
		out = append(out, v)
		return nil
	}).Run(ctx)
	return out, err
}

// Iter starts a run and returns its iterator. The caller must Close it.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	return p.create(ctx)
}

type sliceIter[T any] struct {
	items []T
	next  int
}

func (it *sliceIter[T]) Next(context.Context) (T, bool, error) {
	var zero T
	if it.next >= len(it.items) {
		return zero, false, nil
	}
	it.next++
	return it.items[it.next-1], true, nil
}

func (it *sliceIter[T]) Close() error { return nil }
