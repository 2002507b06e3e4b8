// Package resilience holds the Bulkhead that caps how many engine
// processes run at once, independent of how many sweeps or producers
// share the engine.
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "engine", MaxConcurrent: 4})
//	v, err := resilience.ExecuteWithResult(bh, ctx, func() (float64, error) {
//	    return runEngine(ctx)
//	})
package resilience
