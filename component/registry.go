package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/opflow/logger"
)

// DefaultStopTimeout bounds each component's Stop call.
const DefaultStopTimeout = 10 * time.Second

// Registry starts components in registration order and stops them in
// reverse. A failed StartAll stops whatever it already started.
type Registry struct {
	mu      sync.Mutex
	members []Component
	running []bool
	names   map[string]int

	log         *logger.Logger
	stopTimeout time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the lifecycle logger. Defaults to the global one.
func WithRegistryLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// WithStopTimeout overrides DefaultStopTimeout.
func WithStopTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.stopTimeout = d }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{names: make(map[string]int), stopTimeout: DefaultStopTimeout}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.GetGlobalLogger()
	}
	r.log = r.log.WithComponent(logger.ComponentLifecycle)
	return r
}

// Register appends c. Register dependencies before their dependents.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("component %q already registered", name)
	}
	r.names[name] = len(r.members)
	r.members = append(r.members, c)
	r.running = append(r.running, false)
	return nil
}

// StartAll starts every component not yet running.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.members {
		if r.running[i] {
			continue
		}
		start := time.Now()
		if err := c.Start(ctx); err != nil {
			r.log.Error("component failed to start", logger.MergeWithError(
				logger.Fields("name", c.Name()), err))
			// Release what is already up. The start error is the one to report.
			_ = r.stopFrom(context.WithoutCancel(ctx), i-1)
			return fmt.Errorf("start %s: %w", c.Name(), err)
		}
		r.running[i] = true
		r.log.Debug("component started", logger.Merge(
			logger.Fields("name", c.Name()), logger.DurationFields("start", time.Since(start))))
	}
	return nil
}

// StopAll stops running components in reverse order and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopFrom(ctx, len(r.members)-1)
}

func (r *Registry) stopFrom(ctx context.Context, last int) error {
	var errs []error
	for i := last; i >= 0; i-- {
		if !r.running[i] {
			continue
		}
		c := r.members[i]
		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		r.running[i] = false
		if err != nil {
			r.log.Warn("component failed to stop", logger.MergeWithError(
				logger.Fields("name", c.Name()), err))
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
			continue
		}
		r.log.Debug("component stopped", logger.Fields("name", c.Name()))
	}
	return errors.Join(errs...)
}

// HealthAll reports each component's health in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.Lock()
	members := append([]Component(nil), r.members...)
	r.mu.Unlock()

	out := make([]Health, len(members))
	for i, c := range members {
		out[i] = c.Health(ctx)
		if out[i].Name == "" {
			out[i].Name = c.Name()
		}
	}
	return out
}

// Overall folds component health into one status: any unhealthy member
// makes the whole unhealthy, any degraded one makes it degraded.
func Overall(hs []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range hs {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Get returns the named component, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.names[name]; ok {
		return r.members[i]
	}
	return nil
}

// Describe collects descriptions from the components that provide one.
func (r *Registry) Describe() []Description {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Description
	for _, c := range r.members {
		d, ok := c.(Describable)
		if !ok {
			continue
		}
		desc := d.Describe()
		if desc.Name == "" {
			desc.Name = c.Name()
		}
		out = append(out, desc)
	}
	return out
}
