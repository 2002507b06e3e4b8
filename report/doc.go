// Package report turns a sweep outcome into artifacts: the error curve
// plot, an optional interactive HTML chart and a SQLite history of runs.
//
// Failed and canceled sweeps are reported with the prefix of the curve
// they completed.
package report
