package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/opflow/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string `mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `mapstructure:"environment"`
	// Exporter selects the metric exporter: otlp, prometheus or none.
	Exporter string `mapstructure:"exporter" validate:"omitempty,oneof=none otlp prometheus"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `mapstructure:"insecure"`
	// Interval is the metric export interval for the otlp exporter.
	Interval time.Duration `mapstructure:"interval"`
	// ListenAddr is where the prometheus exporter serves /metrics.
	ListenAddr string `mapstructure:"listen_addr"`
}

// DefaultMeterConfig returns sensible defaults for development.
// Metrics are off until an exporter is chosen.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Exporter:       ExporterNone,
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
		ListenAddr:     ":9464",
	}
}

// MeterProvider bundles the SDK provider with the HTTP handler serving the
// prometheus registry. Handler is nil for push exporters.
type MeterProvider struct {
	*sdkmetric.MeterProvider
	Handler http.Handler
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*MeterProvider, error) {
	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	out := &MeterProvider{}
	var reader sdkmetric.Reader
	switch config.Exporter {
	case ExporterOTLP, "":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(config.Endpoint),
		}
		if config.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating metric exporter: %w", err)
		}
		readerOpts := []sdkmetric.PeriodicReaderOption{}
		if config.Interval > 0 {
			readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
		}
		reader = sdkmetric.NewPeriodicReader(exporter, readerOpts...)
	case ExporterPrometheus:
		registry := prometheus.NewRegistry()
		exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("creating prometheus exporter: %w", err)
		}
		reader = exporter
		out.Handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	default:
		return nil, fmt.Errorf("unknown metric exporter %q", config.Exporter)
	}

	out.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(out.MeterProvider)

	logger.Get(logger.ComponentTelemetry).Debug("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"exporter", config.Exporter,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return out, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the engine. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	operatorRuns      metric.Int64Counter
	operatorDuration  metric.Float64Histogram
	operatorActive    metric.Int64UpDownCounter
	containerRuns     metric.Int64Counter
	containerDuration metric.Float64Histogram
	backfillSkipped   metric.Int64Counter
	snapshotWrites    metric.Int64Counter
	snapshotErrors    metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	operatorRuns, err := meter.Int64Counter("opflow.operator.runs",
		metric.WithDescription("Operator executions by final status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating opflow.operator.runs counter: %w", err)
	}

	operatorDuration, err := meter.Float64Histogram("opflow.operator.duration",
		metric.WithDescription("Duration of operator executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating opflow.operator.duration histogram: %w", err)
	}

	operatorActive, err := meter.Int64UpDownCounter("opflow.operator.active",
		metric.WithDescription("Operators currently executing"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating opflow.operator.active gauge: %w", err)
	}

	containerRuns, err := meter.Int64Counter("opflow.container.runs",
		metric.WithDescription("Container runs by aggregate status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating opflow.container.runs counter: %w", err)
	}

	containerDuration, err := meter.Float64Histogram("opflow.container.duration",
		metric.WithDescription("Duration of container runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating opflow.container.duration histogram: %w", err)
	}

	backfillSkipped, err := meter.Int64Counter("opflow.backfill.skipped",
		metric.WithDescription("Operators resolved from snapshots instead of executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating opflow.backfill.skipped counter: %w", err)
	}

	snapshotWrites, err := meter.Int64Counter("opflow.snapshot.writes",
		metric.WithDescription("Container snapshots written"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating opflow.snapshot.writes counter: %w", err)
	}

	snapshotErrors, err := meter.Int64Counter("opflow.snapshot.errors",
		metric.WithDescription("Snapshot store failures by operation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating opflow.snapshot.errors counter: %w", err)
	}

	return &Metrics{
		operatorRuns:      operatorRuns,
		operatorDuration:  operatorDuration,
		operatorActive:    operatorActive,
		containerRuns:     containerRuns,
		containerDuration: containerDuration,
		backfillSkipped:   backfillSkipped,
		snapshotWrites:    snapshotWrites,
		snapshotErrors:    snapshotErrors,
	}, nil
}

// RecordOperatorStart increments the active operator count.
func (m *Metrics) RecordOperatorStart(ctx context.Context, container, operator string) {
	if m == nil {
		return
	}
	m.operatorActive.Add(ctx, 1, metric.WithAttributes(
		attribute.String("container", container),
		attribute.String("operator", operator),
	))
}

// RecordOperatorEnd decrements active operators and records the finished execution.
func (m *Metrics) RecordOperatorEnd(ctx context.Context, container, operator, status string, duration time.Duration) {
	if m == nil {
		return
	}
	base := []attribute.KeyValue{
		attribute.String("container", container),
		attribute.String("operator", operator),
	}
	m.operatorActive.Add(ctx, -1, metric.WithAttributes(base...))
	m.operatorRuns.Add(ctx, 1, metric.WithAttributes(append(base, attribute.String("status", status))...))
	m.operatorDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(base...))
}

// RecordContainerRun records a finished container run.
func (m *Metrics) RecordContainerRun(ctx context.Context, container, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.containerRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("container", container),
		attribute.String("status", status),
	))
	m.containerDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("container", container),
	))
}

// RecordBackfillSkip records an operator resolved from its last snapshot.
func (m *Metrics) RecordBackfillSkip(ctx context.Context, container, operator string) {
	if m == nil {
		return
	}
	m.backfillSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("container", container),
		attribute.String("operator", operator),
	))
}

// RecordSnapshotWrite records a snapshot write attempt.
func (m *Metrics) RecordSnapshotWrite(ctx context.Context, container string, err error) {
	if m == nil {
		return
	}
	m.snapshotWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("container", container)))
	if err != nil {
		m.RecordSnapshotError(ctx, container, "write")
	}
}

// RecordSnapshotError records a failed snapshot operation (write or read).
func (m *Metrics) RecordSnapshotError(ctx context.Context, container, op string) {
	if m == nil {
		return
	}
	m.snapshotErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("container", container),
		attribute.String("operation", op),
	))
}
