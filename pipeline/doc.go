// Package pipeline provides composable, pull-based data pipeline operators.
//
// Pipelines are lazy: no work happens until values are pulled via Collect
// or Drain. Each stage pulls from the previous one on demand, which gives
// backpressure without explicit flow control.
//
// # Operators
//
//   - Tap: side-effect without altering the value (logging, progress)
//   - Ordered: concurrent transform over a fixed worker pool that delivers results
//     in source order, bounded by in-flight and backlog ceilings, and stops
//     at the first failure
//
// # Usage
//
//	p := pipeline.FromSlice(candidates)
//	scored, err := pipeline.Ordered(p, pipeline.OrderedConfig{Concurrency: 4},
//	    func(ctx context.Context, i int, c Candidate) (float64, error) {
//	        return score(ctx, c)
//	    })
//	if err != nil {
//	    return err
//	}
//	results, err := pipeline.Collect(ctx, scored)
//
// A failed Ordered stage yields every result before the failing index and
// then an *IndexError naming it.
package pipeline
