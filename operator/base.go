package operator

import (
	"maps"
	"sync"
	"time"
)

// Base implements the bookkeeping half of Operator: identity, status,
// data model, timing and counters. Embed it and add Execute.
type Base struct {
	name string

	mu        sync.RWMutex
	status    Status
	dataModel DataModel
	startTime time.Time
	endTime   time.Time
	counters  map[string]int64
}

// NewBase creates an IDLE operator base with the given data model.
func NewBase(name string, model DataModel) *Base {
	return &Base{
		name:      name,
		dataModel: model,
		counters:  make(map[string]int64),
	}
}

// Name returns the operator name.
func (b *Base) Name() string { return b.name }

// Status returns the current status.
func (b *Base) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// SetStatus sets the status. Entering RUNNING stamps the start time and
// entering a terminal status stamps the end time.
func (b *Base) SetStatus(s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case s == Running:
		b.startTime = time.Now()
		b.endTime = time.Time{}
	case s.IsTerminal():
		b.endTime = time.Now()
	case s == Idle:
		b.startTime, b.endTime = time.Time{}, time.Time{}
	}
	b.status = s
}

// DataModel returns the data-model tag.
func (b *Base) DataModel() DataModel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dataModel
}

// SetDataModel overwrites the data-model tag.
func (b *Base) SetDataModel(m DataModel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dataModel = m
}

// ConvertToBatch switches the operator to the BATCH data model.
func (b *Base) ConvertToBatch() { b.SetDataModel(Batch) }

// ConvertToStreaming switches the operator to the STREAMING data model.
func (b *Base) ConvertToStreaming() { b.SetDataModel(Streaming) }

// Reset moves the operator back to IDLE and clears its counters.
func (b *Base) Reset() {
	b.SetStatus(Idle)
	b.mu.Lock()
	b.counters = make(map[string]int64)
	b.mu.Unlock()
}

// IncrementCounter adds delta to the named counter.
func (b *Base) IncrementCounter(name string, delta int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.counters == nil {
		b.counters = make(map[string]int64)
	}
	b.counters[name] += delta
}

// Counters returns a copy of all counters.
func (b *Base) Counters() map[string]int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.counters)
}

// Snapshot captures the current state.
func (b *Base) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &Snapshot{
		OperatorName: b.name,
		Status:       b.status,
		DataModel:    b.dataModel,
		StartTime:    b.startTime,
		EndTime:      b.endTime,
		Counters:     maps.Clone(b.counters),
		TakenAt:      time.Now().UTC(),
	}
}

// StatusFromSnapshot returns the status recorded in s. A record that belongs
// to another operator, or a nil record, yields IDLE.
func (b *Base) StatusFromSnapshot(s *Snapshot) Status {
	if s == nil || s.OperatorName != b.name {
		return Idle
	}
	return s.Status
}
