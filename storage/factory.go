package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/opflow/logger"
)

// Factory opens a backend. providerCfg carries backend settings that do
// not fit Config, such as *s3.Config; backends type-assert it.
type Factory func(cfg Config, providerCfg any, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory makes a provider available to New. Provider packages
// call it from init, so importing them for side effects is enough:
//
//	import _ "github.com/kbukum/opflow/storage/s3"
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New opens the backend selected by cfg.
func New(cfg Config, providerCfg any, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider %q is not registered (have %v)", cfg.Provider, Providers())
	}

	l := log.WithComponent("storage")
	l.Debug("opening blob storage", logger.Fields("provider", cfg.Provider, "max_object_size", cfg.MaxObjectSize))
	return f(cfg, providerCfg, l)
}
