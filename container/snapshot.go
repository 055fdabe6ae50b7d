package container

import (
	"context"

	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/observability"
	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/snapshot"
)

// capture builds a snapshot of the container and every operator.
func (c *Container) capture() *snapshot.ContainerSnapshot {
	ops := c.graph.Operators()

	c.mu.RLock()
	snap := &snapshot.ContainerSnapshot{
		ContainerName: c.name,
		RunID:         c.runID,
		IsInitialized: c.initialized,
		Status:        c.status,
		DataModel:     c.dataModel,
		StartTime:     c.startTime,
		EndTime:       c.endTime,
	}
	c.mu.RUnlock()

	snap.Operators = make(map[string]*operator.Snapshot, len(ops))
	for _, op := range ops {
		snap.Operators[op.Name()] = op.Snapshot()
	}
	return snap
}

// TakeSnapshot writes the current state to the store.
func (c *Container) TakeSnapshot(ctx context.Context) error {
	if !c.IsInitialized() {
		c.log.Warn("taking snapshot of an uninitialized container")
	}
	return c.writeSnapshot(ctx)
}

func (c *Container) writeSnapshot(ctx context.Context) error {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()

	ctx, span := observability.StartSpan(ctx, observability.SpanSnapshotWrite)
	defer span.End()

	snap := c.capture()
	err := c.store.Write(ctx, snap)
	c.metrics.RecordSnapshotWrite(ctx, c.name, err)
	if err != nil {
		observability.Fail(ctx, err)
		return err
	}
	c.log.Debug("snapshot written", logger.Fields(logger.FieldStatus, snap.Status.String(), logger.FieldRunID, snap.RunID))
	return nil
}
