package logger

import "sync"

// Component names the engine logs under.
const (
	ComponentContainer = "container"
	ComponentOperator  = "operator"
	ComponentSnapshot  = "snapshot"
	ComponentTelemetry = "telemetry"
	ComponentLifecycle = "lifecycle"
)

var (
	overridesMu sync.RWMutex
	overrides   = map[string]*Logger{}
)

// Register makes Get return l for name until Unregister is called.
// It lets an embedding program route one component to its own sink.
func Register(name string, l *Logger) {
	overridesMu.Lock()
	defer overridesMu.Unlock()
	overrides[name] = l
}

// Unregister drops the override for name.
func Unregister(name string) {
	overridesMu.Lock()
	defer overridesMu.Unlock()
	delete(overrides, name)
}

// Get returns the override registered for name or, without one, the
// current global logger tagged with the component name. Nothing is cached,
// so loggers fetched after Init follow the new configuration.
func Get(name string) *Logger {
	overridesMu.RLock()
	l, ok := overrides[name]
	overridesMu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}
