// Package component defines the lifecycle interface shared by opflow's
// infrastructure pieces: snapshot backends and telemetry providers.
//
// Components are registered with a Registry, started in registration order
// and stopped in reverse order.
//
// # Interfaces
//
//   - Component: Core lifecycle interface (Start/Stop/Health)
//   - Describable: Startup summary descriptions
package component
