// Package shell provides an operator that runs a shell script.
package shell

import (
	"context"
	"time"

	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/process"
)

// Counter names recorded on every run.
const (
	CounterRuns        = "runs"
	CounterStdoutBytes = "stdout_bytes"
	CounterStderrBytes = "stderr_bytes"
)

// Operator runs a script through /bin/sh. A non-zero exit fails the
// operator.
type Operator struct {
	*operator.Base
	cmd     process.Command
	timeout time.Duration
	log     *logger.Logger
}

var _ operator.Operator = (*Operator)(nil)

// Option configures an Operator.
type Option func(*Operator)

// WithDir sets the working directory.
func WithDir(dir string) Option { return func(o *Operator) { o.cmd.Dir = dir } }

// WithEnv appends KEY=value pairs to the environment.
func WithEnv(env ...string) Option {
	return func(o *Operator) { o.cmd.Env = append(o.cmd.Env, env...) }
}

// WithTimeout bounds each execution.
func WithTimeout(d time.Duration) Option { return func(o *Operator) { o.timeout = d } }

// WithLogger logs captured output at debug level.
func WithLogger(l *logger.Logger) Option { return func(o *Operator) { o.log = l } }

// New creates a shell operator.
func New(name string, model operator.DataModel, script string, opts ...Option) *Operator {
	cmd := process.Shell(script)
	cmd.MaxOutput = 64 << 10
	o := &Operator{Base: operator.NewBase(name, model), cmd: cmd, log: logger.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute implements operator.Operator.
func (o *Operator) Execute(ctx context.Context) error {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	res, err := process.Run(ctx, o.cmd)
	o.IncrementCounter(CounterRuns, 1)
	if res != nil {
		o.IncrementCounter(CounterStdoutBytes, int64(len(res.Stdout)))
		o.IncrementCounter(CounterStderrBytes, int64(len(res.Stderr)))
		o.log.Debug("shell output", logger.Fields(
			logger.FieldOperator, o.Name(),
			"exit_code", res.ExitCode,
			"stdout", string(res.Stdout),
		))
	}
	return err
}
