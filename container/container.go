package container

import (
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/opflow/dag"
	apperrors "github.com/kbukum/opflow/errors"
	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/observability"
	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/snapshot"
)

// Container schedules a graph of operators and tracks the run state.
type Container struct {
	name      string
	dataModel operator.DataModel
	graph     *dag.Graph
	store     snapshot.Store
	log       *logger.Logger
	metrics   *observability.Metrics
	tracing   bool

	mu          sync.RWMutex
	status      operator.Status
	initialized bool
	runID       string
	startTime   time.Time
	endTime     time.Time

	runMu  sync.Mutex // one Execute at a time
	snapMu sync.Mutex // serializes snapshot writes
}

// Option configures a Container.
type Option func(*Container)

// WithStore sets the snapshot store. The default is an in-memory store.
func WithStore(s snapshot.Store) Option {
	return func(c *Container) { c.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Container) { c.log = l }
}

// WithMetrics records run, operator and snapshot metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Container) { c.metrics = m }
}

// WithTracing wraps every operator execution in its own span. Run and
// snapshot spans are always started against the global tracer provider.
func WithTracing() Option {
	return func(c *Container) { c.tracing = true }
}

// New creates an empty container with the DEFAULT data model.
func New(name string, opts ...Option) *Container {
	return newContainer(name, operator.Default, opts...)
}

// NewBatch creates an empty BATCH container.
func NewBatch(name string, opts ...Option) *Container {
	return newContainer(name, operator.Batch, opts...)
}

// NewStreaming creates an empty STREAMING container.
func NewStreaming(name string, opts ...Option) *Container {
	return newContainer(name, operator.Streaming, opts...)
}

func newContainer(name string, model operator.DataModel, opts ...Option) *Container {
	c := &Container{
		name:      name,
		dataModel: model,
		graph:     dag.New(),
		status:    operator.Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = snapshot.NewMemoryStore()
	}
	if c.log == nil {
		c.log = logger.Get(logger.ComponentContainer)
	} else {
		c.log = c.log.WithComponent(logger.ComponentContainer)
	}
	c.log = c.log.WithFields(logger.Fields(logger.FieldContainer, name))
	return c
}

// Name returns the container name.
func (c *Container) Name() string { return c.name }

// DataModel returns the container data model.
func (c *Container) DataModel() operator.DataModel { return c.dataModel }

// Store returns the snapshot store.
func (c *Container) Store() snapshot.Store { return c.store }

// Graph returns the operator graph. It must not be modified directly.
func (c *Container) Graph() *dag.Graph { return c.graph }

// Levels returns operator names grouped by level.
func (c *Container) Levels() ([][]string, error) { return c.graph.Levels() }

// Status returns the container status.
func (c *Container) Status() operator.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// SetStatus switches the container status.
func (c *Container) SetStatus(s operator.Status) {
	c.mu.Lock()
	prev := c.status
	c.status = s
	c.mu.Unlock()
	if prev != s {
		c.log.Info(fmt.Sprintf("Switching to %s status from %s", s, prev),
			logger.Fields(logger.FieldStatus, s.String()))
	}
}

// UnsetStatus moves the container back to IDLE.
func (c *Container) UnsetStatus() { c.SetStatus(operator.Idle) }

// IsInitialized reports whether Initialize has succeeded since the last
// Uninitialize.
func (c *Container) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// RunID returns the ID of the current or last run.
func (c *Container) RunID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runID
}

// Window returns the start and end of the current or last run.
func (c *Container) Window() (start, end time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startTime, c.endTime
}

// AddEdge registers both operators and links from -> to. The first
// operator registered under a name wins; a different operator reusing the
// name is ignored with a warning.
func (c *Container) AddEdge(from, to operator.Operator) error {
	if c.IsInitialized() {
		return apperrors.AlreadyInitialized(c.name)
	}
	c.register(from)
	c.register(to)
	return c.graph.AddEdge(from.Name(), to.Name())
}

// AddOperator registers an operator without edges.
func (c *Container) AddOperator(op operator.Operator) error {
	if c.IsInitialized() {
		return apperrors.AlreadyInitialized(c.name)
	}
	c.register(op)
	return nil
}

func (c *Container) register(op operator.Operator) {
	if _, conflict := c.graph.AddNode(op); conflict {
		c.log.Warn("operator name already registered, keeping the first registration",
			logger.Fields(logger.FieldOperator, op.Name()))
	}
}

// Reset returns the container and every operator to IDLE and clears the
// run state. It is only allowed while not initialized.
func (c *Container) Reset() error {
	if c.IsInitialized() {
		return apperrors.AlreadyInitialized(c.name)
	}
	for _, op := range c.graph.Operators() {
		operator.Reset(op)
	}
	c.mu.Lock()
	c.runID = ""
	c.startTime, c.endTime = time.Time{}, time.Time{}
	c.mu.Unlock()
	c.UnsetStatus()
	return nil
}
