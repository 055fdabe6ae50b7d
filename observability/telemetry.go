package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/opflow/component"
)

// Config groups the tracing and metrics settings.
type Config struct {
	Tracing TracerConfig `mapstructure:"tracing"`
	Metrics MeterConfig  `mapstructure:"metrics"`
}

// DefaultConfig returns a configuration with both signals disabled.
func DefaultConfig(serviceName string) Config {
	return Config{
		Tracing: DefaultTracerConfig(serviceName),
		Metrics: DefaultMeterConfig(serviceName),
	}
}

// Telemetry owns the tracer and meter providers as a lifecycle component.
type Telemetry struct {
	cfg Config

	mu      sync.RWMutex
	tp      *sdktrace.TracerProvider
	mp      *MeterProvider
	metrics *Metrics
	started bool
}

var (
	_ component.Component   = (*Telemetry)(nil)
	_ component.Describable = (*Telemetry)(nil)
)

// NewTelemetry creates an unstarted telemetry component.
func NewTelemetry(cfg Config) *Telemetry {
	return &Telemetry{cfg: cfg}
}

// Name implements component.Component.
func (t *Telemetry) Name() string { return "telemetry" }

// Start initializes whichever providers have an exporter configured and
// creates the engine metric instruments.
func (t *Telemetry) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg.Tracing.Exporter != "" && t.cfg.Tracing.Exporter != ExporterNone {
		tp, err := InitTracer(ctx, t.cfg.Tracing)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		t.tp = tp
	}

	if t.cfg.Metrics.Exporter != "" && t.cfg.Metrics.Exporter != ExporterNone {
		mp, err := InitMeter(ctx, &t.cfg.Metrics)
		if err != nil {
			return fmt.Errorf("init meter: %w", err)
		}
		t.mp = mp
	}

	metrics, err := NewMetrics(Meter(tracerName))
	if err != nil {
		return err
	}
	t.metrics = metrics
	t.started = true
	return nil
}

// Stop flushes and shuts down the providers.
func (t *Telemetry) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
		t.tp = nil
	}
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
		t.mp = nil
	}
	t.started = false
	return errors.Join(errs...)
}

// Health implements component.Component.
func (t *Telemetry) Health(context.Context) component.Health {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.started {
		return component.Health{Name: t.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: t.Name(), Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (t *Telemetry) Describe() component.Description {
	return component.Description{
		Name: "Telemetry",
		Type: "telemetry",
		Details: fmt.Sprintf("traces=%s metrics=%s",
			exporterOrNone(t.cfg.Tracing.Exporter), exporterOrNone(t.cfg.Metrics.Exporter)),
	}
}

// Metrics returns the engine instruments, or nil before Start.
func (t *Telemetry) Metrics() *Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

// Handler returns the prometheus scrape handler, or nil when metrics are
// not exported through prometheus.
func (t *Telemetry) Handler() http.Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.mp == nil {
		return nil
	}
	return t.mp.Handler
}

func exporterOrNone(name string) string {
	if name == "" {
		return ExporterNone
	}
	return name
}
