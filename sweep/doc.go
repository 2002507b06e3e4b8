// Package sweep drives a native-resolution search: it generates the ordered
// candidate heights, scores each one through a Producer on a bounded
// ordered pipeline, and collects the error curve.
//
// # Usage
//
//	candidates, err := sweep.Range(700, 800, 0.25)
//	driver, err := sweep.NewDriver(producer, sweep.WithLimits(8, 24))
//	outcome, err := driver.Run(ctx, candidates)
//	// outcome.CompletedValues() holds the curve prefix even when err != nil.
package sweep
