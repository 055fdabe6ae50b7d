package snapshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/opflow/component"
	"github.com/kbukum/opflow/logger"
)

// healthProbeContainer is read on every health check; it never holds data.
const healthProbeContainer = "__opflow_health__"

// Component manages a Store's lifecycle through component.Registry.
type Component struct {
	cfg Config
	log *logger.Logger

	mu    sync.RWMutex
	store Store
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates an unstarted snapshot component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log}
}

// Name implements component.Component.
func (c *Component) Name() string { return "snapshot" }

// Start opens the configured backend.
func (c *Component) Start(_ context.Context) error {
	store, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("snapshot start: %w", err)
	}
	c.mu.Lock()
	c.store = store
	c.mu.Unlock()
	return nil
}

// Stop closes the backend.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	err := Close(c.store)
	c.store = nil
	return err
}

// Health probes the backend with a read.
func (c *Component) Health(ctx context.Context) component.Health {
	store := c.Store()
	if store == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "store not initialized"}
	}
	if _, err := store.ListContainer(ctx, healthProbeContainer, 1); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("health probe failed: %v", err),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("provider=%s", c.cfg.Provider)
	switch c.cfg.Provider {
	case ProviderStorage:
		details += fmt.Sprintf(" storage=%s", c.cfg.Storage.Provider)
		if b := c.cfg.S3.Bucket; b != "" {
			details += fmt.Sprintf(" bucket=%s", b)
		}
	case ProviderBadger:
		if c.cfg.Badger.InMemory {
			details += " in_memory=true"
		} else {
			details += fmt.Sprintf(" dir=%s", c.cfg.Badger.Dir)
		}
	case ProviderSQL:
		details += fmt.Sprintf(" table=%s", c.cfg.SQL.Table)
	}
	return component.Description{Name: "Snapshot Store", Type: "snapshot", Details: details}
}

// Store returns the open store, or nil before Start.
func (c *Component) Store() Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}
