// Package observability provides OpenTelemetry tracing and metrics for
// container runs, operator executions and snapshot writes.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("opflow"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanOperatorRun,
//	    observability.Attr(observability.AttrOperator, "extract"))
//	defer span.End()
//	observability.Fail(ctx, err)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("opflow"))
//	metrics.RecordOperatorEnd(ctx, "daily", "extract", "SUCCEEDED", duration)
//
// Telemetry bundles both providers as a component.Component so the CLI can
// start and stop them with the rest of its infrastructure.
package observability
