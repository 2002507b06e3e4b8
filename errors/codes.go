package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors. Detected before any work is submitted.
const (
	// ErrCodeInvalidConfig indicates a rejected sweep or pipeline configuration.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInvalidInput indicates malformed user input (flags, fractions, files).
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Execution errors
const (
	// ErrCodeProducerFailed indicates a metric producer invocation failed for a candidate.
	ErrCodeProducerFailed ErrorCode = "PRODUCER_FAILED"
	// ErrCodeEngineUnavailable indicates the external engine could not be started at all.
	ErrCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	// ErrCodeCanceled indicates the sweep was canceled by its caller.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Output errors
const (
	// ErrCodeReportFailed indicates the curve could not be rendered or written.
	ErrCodeReportFailed ErrorCode = "REPORT_FAILED"
	// ErrCodeStorageFailed indicates the run history store failed.
	ErrCodeStorageFailed ErrorCode = "STORAGE_FAILED"
)

// Internal errors
const (
	// ErrCodeInvariantViolation indicates an internal defect, never a user error.
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
)

// exitCodes maps error codes to process exit statuses used by the CLI.
var exitCodes = map[ErrorCode]int{
	ErrCodeInvalidConfig:      2,
	ErrCodeInvalidInput:       2,
	ErrCodeProducerFailed:     3,
	ErrCodeEngineUnavailable:  3,
	ErrCodeCanceled:           130,
	ErrCodeReportFailed:       4,
	ErrCodeStorageFailed:      4,
	ErrCodeInvariantViolation: 70,
}

// ExitCode returns the process exit status for the error code, 1 if unmapped.
func ExitCode(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return 1
}
