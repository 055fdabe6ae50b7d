package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/operator/shell"
)

// Built-in component names.
const (
	ComponentDummy = "dummy"
	ComponentShell = "shell"
	ComponentSleep = "sleep"
	ComponentFail  = "fail"
)

func registerBuiltins(r *Registry) {
	r.Register(ComponentDummy, func(s NodeConfig) (operator.Operator, error) {
		return operator.Dummy(s.Name, s.DataModel), nil
	})
	r.Register(ComponentShell, newShell)
	r.Register(ComponentSleep, newSleep)
	r.Register(ComponentFail, newFail)
}

// newShell reads command (required), dir, env and timeout.
func newShell(s NodeConfig) (operator.Operator, error) {
	command, err := s.Params.String("command", "")
	if err != nil {
		return nil, err
	}
	if command == "" {
		return nil, errors.New("param command is required")
	}
	dir, err := s.Params.String("dir", "")
	if err != nil {
		return nil, err
	}
	env, err := s.Params.Strings("env")
	if err != nil {
		return nil, err
	}
	timeout, err := s.Params.Duration("timeout", 0)
	if err != nil {
		return nil, err
	}
	return shell.New(s.Name, s.DataModel, command,
		shell.WithDir(dir), shell.WithEnv(env...), shell.WithTimeout(timeout)), nil
}

// newSleep waits for duration (default 1s) or until the context ends.
func newSleep(s NodeConfig) (operator.Operator, error) {
	d, err := s.Params.Duration("duration", time.Second)
	if err != nil {
		return nil, err
	}
	return newFunc(s, func(ctx context.Context) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}), nil
}

// newFail always fails with params.message.
func newFail(s NodeConfig) (operator.Operator, error) {
	msg, err := s.Params.String("message", "forced failure")
	if err != nil {
		return nil, err
	}
	return newFunc(s, func(context.Context) error {
		return fmt.Errorf("%s: %s", s.Name, msg)
	}), nil
}

func newFunc(s NodeConfig, fn operator.ExecuteFunc) operator.Operator {
	op := operator.New(s.Name, fn)
	op.SetDataModel(s.DataModel)
	return op
}
