package snapshot

import (
	"fmt"
	"sync"

	"github.com/kbukum/opflow/errors"
	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/resilience"
)

// Factory builds a Store from configuration.
type Factory func(cfg Config, log *logger.Logger) (Store, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{
		ProviderMemory: func(Config, *logger.Logger) (Store, error) { return NewMemoryStore(), nil },
	}
)

// RegisterFactory registers a backend under a provider name. Backend
// packages call it from init.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New builds the configured Store. Unless WriteRetries is 1, the result
// retries retryable failures with backoff.
func New(cfg Config, log *logger.Logger) (Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.InvalidConfig(fmt.Sprintf("snapshot: provider %q is not registered", cfg.Provider))
	}

	l := log.WithComponent(logger.ComponentSnapshot)
	l.Info("initializing snapshot store", logger.Fields("provider", cfg.Provider, "write_retries", cfg.WriteRetries))

	store, err := f(cfg, l)
	if err != nil {
		return nil, err
	}
	if cfg.WriteRetries > 1 {
		store = WithRetry(store, resilience.SnapshotPolicy(cfg.WriteRetries), l)
	}
	return store, nil
}
