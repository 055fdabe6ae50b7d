package container

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/kbukum/opflow/errors"
	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/observability"
	"github.com/kbukum/opflow/operator"
)

type executeOptions struct {
	workers  int
	backfill bool
}

// ExecuteOption configures a single Execute call.
type ExecuteOption func(*executeOptions)

// WithWorkers sets the worker pool size. Values below 1 mean 1.
func WithWorkers(n int) ExecuteOption {
	return func(o *executeOptions) { o.workers = n }
}

// WithBackfill skips operators whose most recent snapshot record is SUCCEEDED.
func WithBackfill(enabled bool) ExecuteOption {
	return func(o *executeOptions) { o.backfill = enabled }
}

// Result describes a finished run.
type Result struct {
	RunID  string
	Status operator.Status
	Start  time.Time
	End    time.Time
	// Executed lists operators in completion order.
	Executed []string
	// Skipped lists operators resolved from snapshots, in registration order.
	Skipped   []string
	Operators map[string]operator.Status
}

// Duration returns how long the run took.
func (r *Result) Duration() time.Duration { return r.End.Sub(r.Start) }

// Failed returns the failed operators in completion order.
func (r *Result) Failed() []string {
	var out []string
	for _, name := range r.Executed {
		if r.Operators[name] == operator.Failed {
			out = append(out, name)
		}
	}
	return out
}

type task struct {
	op    operator.Operator
	level int
}

type completion struct {
	name     string
	status   operator.Status
	err      error
	duration time.Duration
}

// Execute runs the graph once.
//
// Operator failures and panics mark the operator FAILED and make the
// aggregate status FAILED, but never abort siblings, later levels or the
// call itself. The returned error is reserved for configuration problems:
// UNINITIALIZED and EMPTY_GRAPH.
//
// Cancelling ctx does not stop the level loop; the context is handed to
// every operator and to the snapshot store, which decide for themselves.
func (c *Container) Execute(ctx context.Context, opts ...ExecuteOption) (*Result, error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	o := executeOptions{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	if !c.IsInitialized() {
		return nil, apperrors.Uninitialized(c.name)
	}
	if c.graph.Len() == 0 {
		return nil, apperrors.EmptyGraph(c.name)
	}
	levels, err := c.graph.Levels()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	c.mu.Lock()
	c.runID = runID
	c.endTime = time.Time{}
	c.mu.Unlock()
	log := c.log.WithFields(logger.Fields(logger.FieldRunID, runID))

	ctx, span := observability.StartSpan(ctx, observability.SpanContainerRun,
		observability.Attr(observability.AttrContainer, c.name),
		observability.Attr(observability.AttrRunID, runID),
		observability.Attr(observability.AttrWorkers, o.workers),
	)
	defer span.End()

	// Backfill resolves before the pre-run snapshot so that snapshot
	// records the skipped operators as SUCCEEDED instead of shadowing
	// their earlier records with IDLE.
	resolved := map[string]bool{}
	var skipped []string
	if o.backfill {
		skipped = c.backfill(ctx, log)
		for _, name := range skipped {
			resolved[name] = true
		}
	}

	if err := c.writeSnapshot(ctx); err != nil {
		c.snapshotFailed(log, "pre-run", err)
	}

	start := time.Now().UTC()
	c.mu.Lock()
	c.startTime = start
	c.mu.Unlock()
	c.SetStatus(operator.Running)
	log.Info("starting run", logger.Fields(
		logger.FieldWorkers, o.workers,
		"levels", len(levels),
		"backfilled", len(skipped),
	))

	pool := o.workers
	if n := c.graph.Len(); pool > n {
		pool = n
	}
	tasks := make(chan task, c.graph.Len())
	done := make(chan completion, c.graph.Len())

	var g errgroup.Group
	for i := 0; i < pool; i++ {
		g.Go(func() error {
			for t := range tasks {
				done <- c.runTask(ctx, log, t)
			}
			return nil
		})
	}

	executed := make([]string, 0, c.graph.Len())
	for idx, level := range levels {
		sent := 0
		for _, name := range level {
			if resolved[name] {
				continue
			}
			node, _ := c.graph.Node(name)
			tasks <- task{op: node.Operator(), level: idx}
			sent++
		}
		// Barrier: the next level starts only after every task of this
		// level has reported back.
		for i := 0; i < sent; i++ {
			comp := <-done
			executed = append(executed, comp.name)
			if comp.err != nil {
				log.Error("task failed", logger.MergeWithError(
					logger.Fields(logger.FieldOperator, comp.name, logger.FieldLevel, idx),
					apperrors.OperatorFailed(comp.name, comp.err)))
			}
		}
		log.Debug("level complete", logger.Fields(logger.FieldLevel, idx, "tasks", sent))
	}

	close(tasks)
	_ = g.Wait() // workers never return errors

	final, statuses := c.aggregate(log)
	end := time.Now().UTC()
	c.mu.Lock()
	c.endTime = end
	c.mu.Unlock()
	c.SetStatus(final)

	if err := c.writeSnapshot(ctx); err != nil {
		c.snapshotFailed(log, "final", err)
	}
	c.metrics.RecordContainerRun(ctx, c.name, final.String(), end.Sub(start))
	observability.Annotate(ctx, observability.Attr(observability.AttrStatus, final))

	fields := logger.DurationFields("execute", end.Sub(start))
	fields[logger.FieldStatus] = final.String()
	fields["completion_order"] = strings.Join(executed, ",")
	log.Info("run finished", fields)

	return &Result{
		RunID:     runID,
		Status:    final,
		Start:     start,
		End:       end,
		Executed:  executed,
		Skipped:   skipped,
		Operators: statuses,
	}, nil
}

// backfill marks every operator whose most recent record is SUCCEEDED as
// resolved and returns their names in registration order.
func (c *Container) backfill(ctx context.Context, log *logger.Logger) []string {
	var skipped []string
	for _, op := range c.graph.Operators() {
		fields := logger.Fields(logger.FieldOperator, op.Name())
		recs, err := c.store.ListRecent(ctx, c.name, op.Name(), 1)
		if err != nil {
			log.Warn("backfill lookup failed, scheduling operator", logger.MergeWithError(fields, err))
			c.metrics.RecordSnapshotError(ctx, c.name, "list_recent")
			continue
		}
		if len(recs) == 0 || op.StatusFromSnapshot(recs[0]) != operator.Succeeded {
			continue
		}
		op.SetStatus(operator.Succeeded)
		skipped = append(skipped, op.Name())
		c.metrics.RecordBackfillSkip(ctx, c.name, op.Name())
		log.Info("operator resolved from snapshot, skipping", fields)
	}
	return skipped
}

// runTask executes one operator on a worker goroutine.
func (c *Container) runTask(ctx context.Context, log *logger.Logger, t task) completion {
	op := t.op
	name := op.Name()
	log.Info("starting task", logger.Fields(logger.FieldOperator, name, logger.FieldLevel, t.level))

	op.SetStatus(operator.Running)
	start := time.Now()
	err := c.safeExecute(ctx, op)
	d := time.Since(start)

	status := operator.Succeeded
	if err != nil {
		status = operator.Failed
	}
	op.SetStatus(status)

	fields := logger.DurationFields("task", d)
	fields[logger.FieldOperator] = name
	fields[logger.FieldStatus] = status.String()
	log.Info("finished task", fields)

	if serr := c.writeSnapshot(ctx); serr != nil {
		c.snapshotFailed(log, "task", serr)
	}
	return completion{name: name, status: status, err: err, duration: d}
}

// safeExecute runs op.Execute through the configured decorators. Panics
// are recovered innermost so the decorators see them as OPERATOR_PANIC.
func (c *Container) safeExecute(ctx context.Context, op operator.Operator) error {
	var run operator.Operator = recoverer{op}
	if c.tracing {
		run = operator.WithTracing(run, observability.SpanOperatorRun)
	}
	if c.metrics != nil {
		run = operator.WithMetrics(run, c.name, c.metrics)
	}
	return run.Execute(ctx)
}

type recoverer struct {
	operator.Operator
}

func (r recoverer) Execute(ctx context.Context) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = apperrors.OperatorPanic(r.Name(), v)
		}
	}()
	return r.Operator.Execute(ctx)
}

// aggregate returns SUCCEEDED only if every operator succeeded, logging
// the first failing operator in registration order otherwise.
func (c *Container) aggregate(log *logger.Logger) (operator.Status, map[string]operator.Status) {
	final := operator.Succeeded
	statuses := make(map[string]operator.Status, c.graph.Len())
	for _, op := range c.graph.Operators() {
		s := op.Status()
		statuses[op.Name()] = s
		if s != operator.Succeeded && final == operator.Succeeded {
			final = operator.Failed
			log.Error("run failed", logger.Fields(logger.FieldOperator, op.Name(), logger.FieldStatus, s.String()))
		}
	}
	return final, statuses
}

func (c *Container) snapshotFailed(log *logger.Logger, phase string, err error) {
	log.Error("snapshot write failed", logger.MergeWithError(logger.Fields("phase", phase), err))
}
