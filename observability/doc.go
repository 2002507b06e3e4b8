// Package observability wires OpenTelemetry tracing and metrics for sweeps.
//
// InitTracer and InitMeter install OTLP/HTTP exporters as the global
// providers. Without them, the global no-op providers are used and every
// instrument in this package is free to call.
//
//	tp, err := observability.InitTracer(ctx, &observability.TracerConfig{...})
//	defer tp.Shutdown(ctx)
//
//	m, _ := observability.NewSweepMetrics(observability.Meter("getfnative"))
//	ctx, run := observability.StartRun(ctx, runID, len(candidates), m)
//	defer run.End(ctx, completed, err)
package observability
