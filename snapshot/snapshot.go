package snapshot

import (
	"context"
	"maps"
	"sort"
	"time"

	"github.com/kbukum/opflow/operator"
)

// ContainerSnapshot is the persisted state of a container and every
// operator it owns at one point in time.
type ContainerSnapshot struct {
	ContainerName string                        `json:"container_name"`
	RunID         string                        `json:"run_id,omitempty"`
	IsInitialized bool                          `json:"is_initialized"`
	Status        operator.Status               `json:"status"`
	DataModel     operator.DataModel            `json:"data_model"`
	StartTime     time.Time                     `json:"start_time,omitzero"`
	EndTime       time.Time                     `json:"end_time,omitzero"`
	TakenAt       time.Time                     `json:"taken_at"`
	Operators     map[string]*operator.Snapshot `json:"operators"`
}

// Operator returns the record for the named operator, or nil.
func (s *ContainerSnapshot) Operator(name string) *operator.Snapshot {
	if s == nil {
		return nil
	}
	return s.Operators[name]
}

func cloneRecord(rec *operator.Snapshot) *operator.Snapshot {
	cp := *rec
	cp.Counters = maps.Clone(rec.Counters)
	return &cp
}

// Clone returns a copy that shares no maps with s.
func (s *ContainerSnapshot) Clone() *ContainerSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Operators = make(map[string]*operator.Snapshot, len(s.Operators))
	for name, rec := range s.Operators {
		if rec == nil {
			continue
		}
		out.Operators[name] = cloneRecord(rec)
	}
	return &out
}

// Store persists container snapshots.
type Store interface {
	// Write persists snap. The store stamps snap.TakenAt with its own
	// strictly increasing clock before persisting.
	Write(ctx context.Context, snap *ContainerSnapshot) error

	// ListRecent returns up to limit records of one operator, newest first.
	// An operator with no records yields an empty slice and no error.
	ListRecent(ctx context.Context, container, operator string, limit int) ([]*operator.Snapshot, error)

	// ListContainer returns up to limit container snapshots, newest first.
	ListContainer(ctx context.Context, container string, limit int) ([]*ContainerSnapshot, error)
}

// SortNewestFirst orders snapshots by TakenAt, newest first.
func SortNewestFirst(snaps []*ContainerSnapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].TakenAt.After(snaps[j].TakenAt)
	})
}
