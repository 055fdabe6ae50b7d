package snapshot

import (
	"context"
	"sync"

	"github.com/kbukum/opflow/operator"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	clock *Clock

	mu    sync.RWMutex
	snaps map[string][]*ContainerSnapshot // oldest first
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clock: NewClock(), snaps: make(map[string][]*ContainerSnapshot)}
}

// Write implements Store.
func (m *MemoryStore) Write(_ context.Context, snap *ContainerSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.TakenAt = m.clock.Next()
	m.snaps[snap.ContainerName] = append(m.snaps[snap.ContainerName], snap.Clone())
	return nil
}

// ListRecent implements Store.
func (m *MemoryStore) ListRecent(_ context.Context, container, name string, limit int) ([]*operator.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.snaps[container]
	out := []*operator.Snapshot{}
	for i := len(all) - 1; i >= 0; i-- {
		rec := all[i].Operator(name)
		if rec == nil {
			continue
		}
		out = append(out, cloneRecord(rec))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListContainer implements Store.
func (m *MemoryStore) ListContainer(_ context.Context, container string, limit int) ([]*ContainerSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.newestFirst(container, limit), nil
}

// Len returns the number of snapshots written for a container.
func (m *MemoryStore) Len(container string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snaps[container])
}

func (m *MemoryStore) newestFirst(container string, limit int) []*ContainerSnapshot {
	all := m.snaps[container]
	n := len(all)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*ContainerSnapshot, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i].Clone())
	}
	return out
}
