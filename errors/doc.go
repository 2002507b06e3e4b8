// Package errors provides the structured error type used across getfnative.
// Every error surfaced to the CLI carries a machine-readable code, a
// human-readable message and optional details such as the failing
// candidate index. Nothing is retryable: a failed sweep is a hard stop.
package errors
