package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// As returns the first AppError in err's chain, or nil.
func As(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	if appErr := As(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

// --- Constructors ---

// InvalidConfig creates an error for a rejected configuration value.
func InvalidConfig(field, reason string) *AppError {
	e := &AppError{
		Code:    ErrCodeInvalidConfig,
		Message: fmt.Sprintf("invalid configuration: %s", reason),
	}
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// InvalidInput creates an error for malformed user input.
func InvalidInput(field, reason string) *AppError {
	e := &AppError{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf("invalid input: %s", reason),
	}
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// ProducerFailed creates an error for a failed metric computation at a candidate index.
func ProducerFailed(index int, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeProducerFailed,
		Message: fmt.Sprintf("metric computation failed for candidate %d", index),
		Details: map[string]any{"index": index},
		Cause:   cause,
	}
}

// EngineUnavailable creates an error for an engine that cannot be invoked.
func EngineUnavailable(engine string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeEngineUnavailable,
		Message: fmt.Sprintf("engine %q is unavailable", engine),
		Details: map[string]any{"engine": engine},
		Cause:   cause,
	}
}

// Canceled creates an error for a sweep canceled by its caller.
func Canceled(cause error) *AppError {
	return &AppError{Code: ErrCodeCanceled, Message: "sweep canceled", Cause: cause}
}

// ReportFailed creates an error for a rendering or output failure.
func ReportFailed(op string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeReportFailed,
		Message: fmt.Sprintf("report %s failed", op),
		Details: map[string]any{"operation": op},
		Cause:   cause,
	}
}

// StorageFailed creates an error for a run history store failure.
func StorageFailed(cause error) *AppError {
	return &AppError{Code: ErrCodeStorageFailed, Message: "run store failed", Cause: cause}
}

// InvariantViolation creates an error for an internal defect.
func InvariantViolation(what string) *AppError {
	return &AppError{Code: ErrCodeInvariantViolation, Message: what}
}
