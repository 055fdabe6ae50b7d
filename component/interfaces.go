package component

import "context"

// HealthStatus is a component's self-reported state.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's health report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is infrastructure with a lifecycle, such as the snapshot
// store or the telemetry providers. Names must be unique in a Registry.
// Stop is only called after a successful Start.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Describable components report how they are configured; the CLI logs the
// descriptions at startup.
type Describable interface {
	Describe() Description
}

// Description is a one-line summary, e.g. Type "snapshot" with Details
// "provider=badger dir=.opflow". An empty Name means the component's Name().
type Description struct {
	Name    string
	Type    string
	Details string
}
