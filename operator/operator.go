package operator

import (
	"context"
	"time"
)

// Operator is a named, stateful unit of work.
//
// Execute must be safe to call exactly once per scheduling attempt. A nil
// return means the attempt succeeded; the container records the resulting
// status itself, so Execute does not need to call SetStatus.
//
// Status must be safe to call concurrently with SetStatus: the container
// snapshots every operator while workers are running others.
type Operator interface {
	Name() string
	Execute(ctx context.Context) error

	Status() Status
	SetStatus(Status)
	DataModel() DataModel
	SetDataModel(DataModel)

	// Snapshot captures the operator state for persistence.
	Snapshot() *Snapshot
	// StatusFromSnapshot restores a status from a persisted record without executing.
	StatusFromSnapshot(*Snapshot) Status
}

// Snapshot is the persisted state of one operator.
type Snapshot struct {
	OperatorName string           `json:"operator_name"`
	Status       Status           `json:"status"`
	DataModel    DataModel        `json:"data_model"`
	StartTime    time.Time        `json:"start_time,omitzero"`
	EndTime      time.Time        `json:"end_time,omitzero"`
	Counters     map[string]int64 `json:"counters,omitempty"`
	TakenAt      time.Time        `json:"taken_at"`
}
