package container

import (
	apperrors "github.com/kbukum/opflow/errors"
	"github.com/kbukum/opflow/logger"
)

// Initialize checks that every operator agrees with the container on
// status and data model, validates the graph and freezes it.
//
// Without force the first disagreeing operator, in registration order,
// fails the call. With force the operator is overwritten and a warning
// logged. Calling it again on an initialized container repeats the checks;
// a failed repeat leaves the container initialized. It waits for a running
// Execute to finish.
func (c *Container) Initialize(force bool) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	status := c.Status()
	for _, op := range c.graph.Operators() {
		fields := logger.Fields(logger.FieldOperator, op.Name())

		if got := op.Status(); got != status {
			if !force {
				return apperrors.StatusInconsistent(op.Name(), got.String(), status.String())
			}
			c.log.Warn("forcing operator status to match container",
				logger.Fields(logger.FieldOperator, op.Name(), "from", got.String(), "to", status.String()))
			op.SetStatus(status)
		}
		if got := op.DataModel(); got != c.dataModel {
			if !force {
				return apperrors.DataModelInconsistent(op.Name(), got.String(), c.dataModel.String())
			}
			c.log.Warn("forcing operator data model to match container",
				logger.Fields(logger.FieldOperator, op.Name(), "from", got.String(), "to", c.dataModel.String()))
			op.SetDataModel(c.dataModel)
		}
		c.log.Debug("operator consistent", fields)
	}

	if err := c.graph.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()
	c.log.Info("container initialized", logger.Fields("operators", c.graph.Len()))
	return nil
}

// Uninitialize unfreezes the graph so more edges can be added. It waits for
// a running Execute to finish.
func (c *Container) Uninitialize() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	c.mu.Lock()
	c.initialized = false
	c.mu.Unlock()
	c.log.Info("container uninitialized")
}
