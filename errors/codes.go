package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors. Returned to the caller before any operator runs.
const (
	// ErrCodeAlreadyInitialized indicates an edge was added after Initialize.
	ErrCodeAlreadyInitialized ErrorCode = "ALREADY_INITIALIZED"
	// ErrCodeUninitialized indicates Execute was called before Initialize.
	ErrCodeUninitialized ErrorCode = "UNINITIALIZED"
	// ErrCodeEmptyGraph indicates the container has no operators.
	ErrCodeEmptyGraph ErrorCode = "EMPTY_GRAPH"
	// ErrCodeCycleDetected indicates the edge set is not acyclic.
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"
	// ErrCodeInvalidConfig indicates a configuration value is invalid.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeNotFound indicates a named item (operator, component, pipeline) does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Consistency errors. Fatal unless Initialize is forced.
const (
	// ErrCodeStatusInconsistent indicates an operator status differs from the container status.
	ErrCodeStatusInconsistent ErrorCode = "STATUS_INCONSISTENT"
	// ErrCodeDataModelInconsistent indicates an operator data model differs from the container data model.
	ErrCodeDataModelInconsistent ErrorCode = "DATA_MODEL_INCONSISTENT"
)

// Execution errors. Recorded as operator status, only ever logged.
const (
	// ErrCodeOperatorFailed indicates an operator returned an error.
	ErrCodeOperatorFailed ErrorCode = "OPERATOR_FAILED"
	// ErrCodeOperatorPanic indicates an operator panicked.
	ErrCodeOperatorPanic ErrorCode = "OPERATOR_PANIC"
)

// Snapshot store errors.
const (
	// ErrCodeSnapshotWrite indicates a snapshot record could not be persisted.
	ErrCodeSnapshotWrite ErrorCode = "SNAPSHOT_WRITE"
	// ErrCodeSnapshotRead indicates snapshot records could not be listed or decoded.
	ErrCodeSnapshotRead ErrorCode = "SNAPSHOT_READ"
	// ErrCodeSnapshotNotFound indicates no record exists for the requested key.
	ErrCodeSnapshotNotFound ErrorCode = "SNAPSHOT_NOT_FOUND"
)

// ErrCodeInternal indicates an unexpected internal error.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeSnapshotWrite: true,
	ErrCodeSnapshotRead:  true,
	ErrCodeInternal:      false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
