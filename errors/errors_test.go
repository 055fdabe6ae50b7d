package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeEmptyGraph, "no operators")
	if err.Code != ErrCodeEmptyGraph {
		t.Errorf("expected code %s, got %s", ErrCodeEmptyGraph, err.Code)
	}
	if err.Message != "no operators" {
		t.Errorf("expected message 'no operators', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("EMPTY_GRAPH should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeSnapshotWrite, "disk full")
	if !err.Retryable {
		t.Error("SNAPSHOT_WRITE should be retryable")
	}
}

func TestAppError_Error_WithCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := OperatorFailed("op1", cause)
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestAppError_IsSentinel(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"already initialized", AlreadyInitialized("c"), ErrAlreadyInitialized, true},
		{"uninitialized", Uninitialized("c"), ErrUninitialized, true},
		{"empty graph", EmptyGraph("c"), ErrEmptyGraph, true},
		{"cycle", CycleDetected(1, 3), ErrCycleDetected, true},
		{"status", StatusInconsistent("op", "RUNNING", "IDLE"), ErrStatusInconsistent, true},
		{"data model", DataModelInconsistent("op", "BATCH", "STREAMING"), ErrDataModelInconsistent, true},
		{"wrapped", fmt.Errorf("ctx: %w", Uninitialized("c")), ErrUninitialized, true},
		{"different code", EmptyGraph("c"), ErrUninitialized, false},
		{"plain error", fmt.Errorf("plain"), ErrUninitialized, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Is(tc.err, tc.target); got != tc.want {
				t.Errorf("Is() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStatusInconsistent_NamesOperator(t *testing.T) {
	err := StatusInconsistent("extract", "RUNNING", "IDLE")
	if err.Details["operator"] != "extract" {
		t.Errorf("expected operator=extract, got %v", err.Details["operator"])
	}
	if !strings.Contains(err.Message, "extract") {
		t.Errorf("expected operator name in message, got %q", err.Message)
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := InvalidConfig("bad").WithDetail("field", "workers").WithDetails(map[string]any{"value": 0})
	if err.Details["field"] != "workers" || err.Details["value"] != 0 {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("wrap: %w", SnapshotRead("k", nil))); got != ErrCodeSnapshotRead {
		t.Errorf("expected SNAPSHOT_READ, got %q", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("expected empty code, got %q", got)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(SnapshotWrite("k", fmt.Errorf("io"))) {
		t.Error("snapshot write errors should be retryable")
	}
	if IsRetryable(Uninitialized("c")) {
		t.Error("configuration errors should not be retryable")
	}
	if IsRetryable(fmt.Errorf("plain")) {
		t.Error("plain errors are never retryable")
	}
}
