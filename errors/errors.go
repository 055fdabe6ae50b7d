package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
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

// Is reports whether target is an AppError with the same code.
// This lets the package sentinels be used with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
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

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// Sentinels for errors.Is. Only the code is compared.
var (
	ErrAlreadyInitialized    = &AppError{Code: ErrCodeAlreadyInitialized}
	ErrUninitialized         = &AppError{Code: ErrCodeUninitialized}
	ErrEmptyGraph            = &AppError{Code: ErrCodeEmptyGraph}
	ErrCycleDetected         = &AppError{Code: ErrCodeCycleDetected}
	ErrInvalidConfig         = &AppError{Code: ErrCodeInvalidConfig}
	ErrNotFound              = &AppError{Code: ErrCodeNotFound}
	ErrStatusInconsistent    = &AppError{Code: ErrCodeStatusInconsistent}
	ErrDataModelInconsistent = &AppError{Code: ErrCodeDataModelInconsistent}
	ErrOperatorFailed        = &AppError{Code: ErrCodeOperatorFailed}
	ErrOperatorPanic         = &AppError{Code: ErrCodeOperatorPanic}
	ErrSnapshotWrite         = &AppError{Code: ErrCodeSnapshotWrite}
	ErrSnapshotRead          = &AppError{Code: ErrCodeSnapshotRead}
	ErrSnapshotNotFound      = &AppError{Code: ErrCodeSnapshotNotFound}
)

// --- Configuration errors ---

// AlreadyInitialized reports a topology change attempted on an initialized container.
func AlreadyInitialized(container string) *AppError {
	return &AppError{
		Code:    ErrCodeAlreadyInitialized,
		Message: fmt.Sprintf("container %s is already initialized, uninitialize it before adding edges", container),
		Details: map[string]any{"container": container},
	}
}

// Uninitialized reports Execute called on a container that was never initialized.
func Uninitialized(container string) *AppError {
	return &AppError{
		Code:    ErrCodeUninitialized,
		Message: fmt.Sprintf("container %s is not initialized", container),
		Details: map[string]any{"container": container},
	}
}

// EmptyGraph reports a container without operators.
func EmptyGraph(container string) *AppError {
	return &AppError{
		Code:    ErrCodeEmptyGraph,
		Message: fmt.Sprintf("container %s has no operators", container),
		Details: map[string]any{"container": container},
	}
}

// CycleDetected reports a graph whose edges form a cycle.
func CycleDetected(processed, total int) *AppError {
	return &AppError{
		Code:    ErrCodeCycleDetected,
		Message: fmt.Sprintf("cycle detected, leveled %d of %d nodes", processed, total),
		Details: map[string]any{"processed": processed, "total": total},
	}
}

// InvalidConfig reports an invalid configuration value.
func InvalidConfig(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}

// NotFound reports a missing named resource.
func NotFound(resource, name string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, name),
		Details: map[string]any{"resource": resource, "name": name},
	}
}

// --- Consistency errors ---

// StatusInconsistent reports an operator whose status disagrees with the container.
func StatusInconsistent(operator, got, want string) *AppError {
	return &AppError{
		Code:    ErrCodeStatusInconsistent,
		Message: fmt.Sprintf("status of operator %s is %s, container expects %s", operator, got, want),
		Details: map[string]any{"operator": operator, "got": got, "want": want},
	}
}

// DataModelInconsistent reports an operator whose data model disagrees with the container.
func DataModelInconsistent(operator, got, want string) *AppError {
	return &AppError{
		Code:    ErrCodeDataModelInconsistent,
		Message: fmt.Sprintf("data model of operator %s is %s, container expects %s", operator, got, want),
		Details: map[string]any{"operator": operator, "got": got, "want": want},
	}
}

// --- Execution errors ---

// OperatorFailed wraps the error returned by an operator.
func OperatorFailed(operator string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeOperatorFailed,
		Message: fmt.Sprintf("operator %s failed", operator),
		Details: map[string]any{"operator": operator},
		Cause:   cause,
	}
}

// OperatorPanic records a recovered panic value.
func OperatorPanic(operator string, value any) *AppError {
	return &AppError{
		Code:    ErrCodeOperatorPanic,
		Message: fmt.Sprintf("operator %s panicked: %v", operator, value),
		Details: map[string]any{"operator": operator},
	}
}

// --- Snapshot errors ---

// SnapshotWrite wraps a failed snapshot write.
func SnapshotWrite(key string, cause error) *AppError {
	return &AppError{
		Code:      ErrCodeSnapshotWrite,
		Message:   fmt.Sprintf("failed to write snapshot %s", key),
		Retryable: true,
		Details:   map[string]any{"key": key},
		Cause:     cause,
	}
}

// SnapshotRead wraps a failed snapshot read.
func SnapshotRead(key string, cause error) *AppError {
	return &AppError{
		Code:      ErrCodeSnapshotRead,
		Message:   fmt.Sprintf("failed to read snapshot %s", key),
		Retryable: true,
		Details:   map[string]any{"key": key},
		Cause:     cause,
	}
}

// SnapshotNotFound reports a missing snapshot record.
func SnapshotNotFound(key string) *AppError {
	return &AppError{
		Code:    ErrCodeSnapshotNotFound,
		Message: fmt.Sprintf("snapshot %s not found", key),
		Details: map[string]any{"key": key},
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "an unexpected error occurred",
		Cause:   cause,
	}
}

// --- Helpers ---

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain,
// or an empty code when there is none.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// IsRetryable reports whether err carries a retryable AppError.
func IsRetryable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable
	}
	return false
}

// Is is a passthrough to the standard library so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As is a passthrough to the standard library so callers need a single import.
func As(err error, target any) bool { return stderrors.As(err, target) }
