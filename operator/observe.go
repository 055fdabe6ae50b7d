package operator

import (
	"context"
	"time"

	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/observability"
)

// Reset clears an operator's run state. Decorators are unwrapped until an
// operator with its own Reset is found; otherwise the status returns to IDLE.
func Reset(op Operator) {
	for cur := op; cur != nil; {
		if r, ok := cur.(interface{ Reset() }); ok {
			r.Reset()
			return
		}
		u, ok := cur.(interface{ Unwrap() Operator })
		if !ok {
			break
		}
		cur = u.Unwrap()
	}
	op.SetStatus(Idle)
}

// WithTracing wraps an Operator so every execution runs inside a span named
// "{prefix}.{operatorName}".
func WithTracing(op Operator, prefix string) Operator {
	return &tracingOperator{Operator: op, prefix: prefix}
}

type tracingOperator struct {
	Operator
	prefix string
}

// Unwrap returns the decorated operator.
func (o *tracingOperator) Unwrap() Operator { return o.Operator }

func (o *tracingOperator) Execute(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, o.prefix+"."+o.Name(),
		observability.Attr(observability.AttrOperator, o.Name()),
		observability.Attr(observability.AttrDataModel, o.DataModel()),
	)
	defer span.End()

	err := o.Operator.Execute(ctx)
	observability.Fail(ctx, err)
	return err
}

// WithMetrics wraps an Operator with execution metrics recorded under the
// given container name.
func WithMetrics(op Operator, container string, metrics *observability.Metrics) Operator {
	return &metricsOperator{Operator: op, container: container, metrics: metrics}
}

type metricsOperator struct {
	Operator
	container string
	metrics   *observability.Metrics
}

// Unwrap returns the decorated operator.
func (o *metricsOperator) Unwrap() Operator { return o.Operator }

func (o *metricsOperator) Execute(ctx context.Context) error {
	o.metrics.RecordOperatorStart(ctx, o.container, o.Name())
	start := time.Now()
	err := o.Operator.Execute(ctx)

	status := Succeeded
	if err != nil {
		status = Failed
	}
	o.metrics.RecordOperatorEnd(ctx, o.container, o.Name(), status.String(), time.Since(start))
	return err
}

// WithLogging wraps an Operator with execution logging.
func WithLogging(op Operator, log *logger.Logger) Operator {
	return &loggingOperator{Operator: op, log: log}
}

type loggingOperator struct {
	Operator
	log *logger.Logger
}

// Unwrap returns the decorated operator.
func (o *loggingOperator) Unwrap() Operator { return o.Operator }

func (o *loggingOperator) Execute(ctx context.Context) error {
	start := time.Now()
	err := o.Operator.Execute(ctx)

	fields := logger.DurationFields("execute", time.Since(start))
	fields[logger.FieldOperator] = o.Name()
	if err != nil {
		o.log.Error("operator execution failed", logger.MergeWithError(fields, err))
	} else {
		o.log.Debug("operator execution completed", fields)
	}
	return err
}
