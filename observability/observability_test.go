package observability

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/opflow/component"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Exporter != ExporterNone {
		t.Errorf("expected tracing disabled by default, got %q", cfg.Exporter)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
	if cfg.Exporter != ExporterNone {
		t.Errorf("expected metrics disabled by default, got %q", cfg.Exporter)
	}
}

func TestNewMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	if metrics == nil {
		t.Fatal("expected non-nil metrics")
	}

	ctx := context.Background()
	metrics.RecordOperatorStart(ctx, "daily", "extract")
	metrics.RecordOperatorEnd(ctx, "daily", "extract", "SUCCEEDED", 100*time.Millisecond)
	metrics.RecordContainerRun(ctx, "daily", "SUCCEEDED", time.Second)
	metrics.RecordBackfillSkip(ctx, "daily", "load")
	metrics.RecordSnapshotWrite(ctx, "daily", nil)
	metrics.RecordSnapshotWrite(ctx, "daily", fmt.Errorf("disk full"))
	metrics.RecordSnapshotError(ctx, "daily", "read")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordOperatorStart(ctx, "c", "o")
	m.RecordOperatorEnd(ctx, "c", "o", "FAILED", time.Millisecond)
	m.RecordContainerRun(ctx, "c", "FAILED", time.Millisecond)
	m.RecordBackfillSkip(ctx, "c", "o")
	m.RecordSnapshotWrite(ctx, "c", nil)
	m.RecordSnapshotError(ctx, "c", "read")
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()
	ctx, span := StartSpan(ctx, SpanContainerRun)
	defer span.End()

	if span == nil {
		t.Fatal("expected non-nil span")
	}
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
}

func TestSpanRecording(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanOperatorRun, Attr(AttrOperator, "extract"))
	Annotate(ctx,
		Attr(AttrLevel, 2),
		Attr(AttrWorkers, int64(4)),
		Attr("ratio", 0.5),
		Attr("forced", true),
		Attr("parents", []string{"a", "b"}),
	)
	Fail(ctx, fmt.Errorf("boom"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != SpanOperatorRun {
		t.Errorf("expected span %q, got %q", SpanOperatorRun, got.Name)
	}
	if len(got.Attributes) != 6 {
		t.Errorf("expected 6 attributes, got %d", len(got.Attributes))
	}
	if len(got.Events) != 1 {
		t.Errorf("expected recorded error event, got %d events", len(got.Events))
	}
	if got.Status.Code != codes.Error || got.Status.Description != "boom" {
		t.Errorf("unexpected status %+v", got.Status)
	}
}

func TestAttr(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  attribute.Type
		str   string
	}{
		{"string", "extract", attribute.STRING, "extract"},
		{"int", 3, attribute.INT64, "3"},
		{"bool", true, attribute.BOOL, "true"},
		{"stringer", time.Second, attribute.STRING, "1s"},
		{"fallback", struct{ N int }{7}, attribute.STRING, "{7}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := Attr("k", tt.value)
			if kv.Value.Type() != tt.want || kv.Value.Emit() != tt.str {
				t.Errorf("Attr(%v) = %s %q", tt.value, kv.Value.Type(), kv.Value.Emit())
			}
		})
	}
}

func TestAnnotateWithoutSpan(t *testing.T) {
	ctx := context.Background()
	Annotate(ctx, Attr("key", "value"))
	Fail(ctx, fmt.Errorf("no span error"))
	Fail(ctx, nil)
}

func TestSamplerFollowsParent(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter), sdktrace.WithSampler(newSampler(0)))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, root := StartSpan(context.Background(), SpanContainerRun)
	_, child := StartSpan(ctx, SpanOperatorRun)
	child.End()
	root.End()
	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("rate 0 should drop the whole trace, got %d spans", n)
	}
}

func TestInitTracerUnknownExporter(t *testing.T) {
	cfg := DefaultTracerConfig("svc")
	cfg.Exporter = "zipkin"
	if _, err := InitTracer(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestInitTracerSamplingRates(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
	}{
		{"always sample", 1.0},
		{"never sample", 0.0},
		{"ratio based", 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTracerConfig("test")
			cfg.Exporter = ExporterStdout
			cfg.SampleRate = tc.sampleRate

			tp, err := InitTracer(context.Background(), cfg)
			if err != nil {
				t.Fatalf("InitTracer failed: %v", err)
			}
			tp.Shutdown(context.Background())
		})
	}
}

func TestInitMeterUnknownExporter(t *testing.T) {
	cfg := DefaultMeterConfig("svc")
	cfg.Exporter = "statsd"
	if _, err := InitMeter(context.Background(), &cfg); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestInitMeterPrometheus(t *testing.T) {
	cfg := DefaultMeterConfig("svc")
	cfg.Exporter = ExporterPrometheus

	mp, err := InitMeter(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("InitMeter failed: %v", err)
	}
	defer mp.Shutdown(context.Background())

	if mp.Handler == nil {
		t.Fatal("expected prometheus handler")
	}

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	metrics.RecordContainerRun(context.Background(), "daily", "SUCCEEDED", time.Second)

	rec := httptest.NewRecorder()
	mp.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "opflow_container_runs") {
		t.Errorf("expected container runs metric in scrape output:\n%s", rec.Body.String())
	}
}

func TestTelemetryLifecycle(t *testing.T) {
	tel := NewTelemetry(DefaultConfig("svc"))
	ctx := context.Background()

	if h := tel.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if tel.Metrics() != nil {
		t.Error("expected nil metrics before start")
	}

	if err := tel.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if tel.Metrics() == nil {
		t.Error("expected metrics after start")
	}
	if tel.Handler() != nil {
		t.Error("expected no scrape handler with metrics disabled")
	}
	if h := tel.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %s", h.Status)
	}
	if d := tel.Describe(); d.Details != "traces=none metrics=none" {
		t.Errorf("unexpected description %q", d.Details)
	}
	if err := tel.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
