package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/kbukum/opflow/component"
	"github.com/kbukum/opflow/container"
	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/observability"
	"github.com/kbukum/opflow/snapshot"

	// Snapshot backends register themselves with snapshot.New.
	_ "github.com/kbukum/opflow/snapshot/badgerstore"
	_ "github.com/kbukum/opflow/snapshot/objectstore"
	_ "github.com/kbukum/opflow/snapshot/sqlstore"
)

// app owns the components a command needs.
type app struct {
	cfg       *AppConfig
	log       *logger.Logger
	registry  *component.Registry
	snapshots *snapshot.Component
	telemetry *observability.Telemetry
	metrics   *http.Server
}

func newApp(cfg *AppConfig) (*app, error) {
	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()

	a := &app{
		cfg:       cfg,
		log:       log,
		registry:  component.NewRegistry(component.WithRegistryLogger(log)),
		snapshots: snapshot.NewComponent(cfg.Snapshot, log),
		telemetry: observability.NewTelemetry(cfg.Telemetry),
	}
	if err := a.registry.Register(a.telemetry); err != nil {
		return nil, err
	}
	if err := a.registry.Register(a.snapshots); err != nil {
		return nil, err
	}
	return a, nil
}

// start opens the snapshot backend and telemetry providers, then serves
// /metrics when the prometheus exporter is configured.
func (a *app) start(ctx context.Context) error {
	if err := a.registry.StartAll(ctx); err != nil {
		return err
	}
	for _, d := range a.registry.Describe() {
		a.log.Debug("component ready", logger.Fields("name", d.Name, "details", d.Details))
	}
	if hs := a.registry.HealthAll(ctx); component.Overall(hs) != component.StatusHealthy {
		a.log.Warn("components not healthy after start", logger.Fields("health", hs))
	}

	h := a.telemetry.Handler()
	addr := a.cfg.Telemetry.Metrics.ListenAddr
	if h == nil || addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	mux.HandleFunc("/healthz", a.serveHealth)
	a.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server stopped", logger.MergeWithError(logger.Fields(logger.FieldOperation, "serve"), err))
		}
	}()
	a.log.Info("serving metrics", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// serveHealth reports component health; 503 unless every component is healthy.
func (a *app) serveHealth(w http.ResponseWriter, r *http.Request) {
	hs := a.registry.HealthAll(r.Context())
	status := component.Overall(hs)
	w.Header().Set("Content-Type", "application/json")
	if status != component.StatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "components": hs})
}

// stop shuts everything down in reverse order.
func (a *app) stop(ctx context.Context) error {
	var errs []error
	if a.metrics != nil {
		errs = append(errs, a.metrics.Shutdown(ctx))
	}
	errs = append(errs, a.registry.StopAll(ctx))
	return errors.Join(errs...)
}

// containerOptions wires the started components into a container.
func (a *app) containerOptions() []container.Option {
	opts := []container.Option{
		container.WithStore(a.snapshots.Store()),
		container.WithLogger(a.log),
		container.WithMetrics(a.telemetry.Metrics()),
	}
	if exp := a.cfg.Telemetry.Tracing.Exporter; exp != "" && exp != observability.ExporterNone {
		opts = append(opts, container.WithTracing())
	}
	return opts
}
