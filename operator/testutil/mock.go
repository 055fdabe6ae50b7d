package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/opflow/operator"
)

// Timeline hands out a global, strictly increasing sequence number. Mocks
// sharing a Timeline can be ordered without relying on clock resolution.
type Timeline struct {
	seq atomic.Int64
}

// NewTimeline creates an empty Timeline.
func NewTimeline() *Timeline { return &Timeline{} }

func (t *Timeline) next() int64 {
	if t == nil {
		return 0
	}
	return t.seq.Add(1)
}

// MockOperator is a configurable test operator. It records every Execute
// call and returns a preset error or panics with a preset value.
type MockOperator struct {
	*operator.Base

	err      error
	panicVal any
	delay    time.Duration
	fn       func(ctx context.Context) error
	timeline *Timeline

	mu       sync.Mutex
	calls    int
	started  time.Time
	finished time.Time
	startSeq int64
	endSeq   int64
}

var _ operator.Operator = (*MockOperator)(nil)

// NewMockOperator creates a DEFAULT-model mock that succeeds.
func NewMockOperator(name string) *MockOperator {
	return &MockOperator{Base: operator.NewBase(name, operator.Default)}
}

// WithError makes Execute return err.
func (m *MockOperator) WithError(err error) *MockOperator {
	m.err = err
	return m
}

// WithPanic makes Execute panic with v.
func (m *MockOperator) WithPanic(v any) *MockOperator {
	m.panicVal = v
	return m
}

// WithDelay makes Execute sleep for d before returning.
func (m *MockOperator) WithDelay(d time.Duration) *MockOperator {
	m.delay = d
	return m
}

// WithFunc replaces the body of Execute. Delay and error settings are ignored.
func (m *MockOperator) WithFunc(fn func(ctx context.Context) error) *MockOperator {
	m.fn = fn
	return m
}

// WithTimeline records start and end sequence numbers on tl.
func (m *MockOperator) WithTimeline(tl *Timeline) *MockOperator {
	m.timeline = tl
	return m
}

// WithDataModel sets the initial data model.
func (m *MockOperator) WithDataModel(dm operator.DataModel) *MockOperator {
	m.SetDataModel(dm)
	return m
}

// Execute implements operator.Operator.
func (m *MockOperator) Execute(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	m.started = time.Now()
	m.startSeq = m.timeline.next()
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.finished = time.Now()
		m.endSeq = m.timeline.next()
		m.mu.Unlock()
	}()

	if m.fn != nil {
		return m.fn(ctx)
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.panicVal != nil {
		panic(m.panicVal)
	}
	return m.err
}

// Calls returns how many times Execute was invoked.
func (m *MockOperator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Window returns the wall-clock start and end of the last Execute call.
func (m *MockOperator) Window() (start, end time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started, m.finished
}

// Sequence returns the timeline positions of the last Execute call.
// Both are zero if the mock has no timeline or never ran.
func (m *MockOperator) Sequence() (start, end int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startSeq, m.endSeq
}

// ResetCalls clears the call counter and recorded windows.
func (m *MockOperator) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = 0
	m.started, m.finished = time.Time{}, time.Time{}
	m.startSeq, m.endSeq = 0, 0
}
