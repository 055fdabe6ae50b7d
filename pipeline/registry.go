package pipeline

import (
	"sort"
	"sync"

	"github.com/kbukum/opflow/operator"
)

// NodeConfig is what a Factory receives for one node.
type NodeConfig struct {
	Name      string
	DataModel operator.DataModel
	Params    Params
}

// Factory creates the operator for a node.
type Factory func(cfg NodeConfig) (operator.Operator, error)

// Registry maps component names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a Registry holding the built-in components.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// Register adds or replaces a component.
func (r *Registry) Register(component string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[component] = f
}

// Get retrieves a factory by component name.
func (r *Registry) Get(component string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[component]
	return f, ok
}

// List returns the sorted component names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
