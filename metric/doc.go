// Package metric implements sweep.Producer.
//
// FuncProducer runs a Go function per candidate. CommandProducer runs the
// external descale engine once per candidate, rendering its argument list
// from templates and reading the error value from the last line of its
// output. Instrument wraps either one with tracing and metrics.
package metric
