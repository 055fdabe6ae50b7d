package pipeline

import (
	"fmt"

	"github.com/kbukum/opflow/container"
	apperrors "github.com/kbukum/opflow/errors"
	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/operator"
)

// Resolve flattens a definition and its includes into one definition.
// Included nodes come first, a node name defined twice keeps its first
// definition and every dependency must name a known node.
func Resolve(def *Definition, loader Loader) (*Definition, error) {
	out := &Definition{Name: def.Name, Mode: def.Mode}
	seen := map[string]bool{}
	if err := resolveInto(out, def, loader, map[string]bool{}, map[string]bool{}, seen); err != nil {
		return nil, err
	}

	for _, n := range out.Nodes {
		for _, dep := range n.DependsOn {
			if !seen[dep] {
				return nil, apperrors.InvalidConfig(fmt.Sprintf("pipeline %s: node %q depends on unknown node %q", def.Name, n.ID(), dep))
			}
		}
	}
	return out, nil
}

// stack holds the include path being resolved, done the definitions
// already merged.
func resolveInto(out, def *Definition, loader Loader, stack, done, seen map[string]bool) error {
	if stack[def.Name] {
		return apperrors.InvalidConfig(fmt.Sprintf("pipeline: circular include of %q", def.Name))
	}
	stack[def.Name] = true
	defer delete(stack, def.Name)

	for _, name := range def.Includes {
		if done[name] {
			continue
		}
		if loader == nil {
			return apperrors.InvalidConfig(fmt.Sprintf("pipeline %s: include %q needs a loader", def.Name, name))
		}
		sub, err := loader.Load(name)
		if err != nil {
			return fmt.Errorf("pipeline %s: include %q: %w", def.Name, name, err)
		}
		if err := resolveInto(out, sub, loader, stack, done, seen); err != nil {
			return err
		}
	}

	for _, n := range def.Nodes {
		if seen[n.ID()] {
			continue
		}
		seen[n.ID()] = true
		out.Nodes = append(out.Nodes, n)
	}
	done[def.Name] = true
	return nil
}

type buildOptions struct {
	container []container.Option
	opLog     *logger.Logger
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithContainerOptions passes options to the container constructor.
func WithContainerOptions(opts ...container.Option) BuildOption {
	return func(b *buildOptions) { b.container = append(b.container, opts...) }
}

// WithOperatorLogging logs every operator execution with its duration.
func WithOperatorLogging(log *logger.Logger) BuildOption {
	return func(b *buildOptions) { b.opLog = log }
}

// Build resolves def and returns an uninitialized container holding its
// nodes, registered in definition order.
func Build(def *Definition, reg *Registry, loader Loader, opts ...BuildOption) (*container.Container, error) {
	var b buildOptions
	for _, opt := range opts {
		opt(&b)
	}

	flat, err := Resolve(def, loader)
	if err != nil {
		return nil, err
	}

	var c *container.Container
	switch model := flat.DataModel(); model {
	case operator.Batch:
		c = container.NewBatch(flat.Name, b.container...)
	case operator.Streaming:
		c = container.NewStreaming(flat.Name, b.container...)
	default:
		c = container.New(flat.Name, b.container...)
	}

	ops := make(map[string]operator.Operator, len(flat.Nodes))
	for _, n := range flat.Nodes {
		f, ok := reg.Get(n.Component)
		if !ok {
			return nil, apperrors.NotFound("component", n.Component).WithDetail("node", n.ID())
		}
		op, err := f(NodeConfig{Name: n.ID(), DataModel: flat.DataModel(), Params: n.Params})
		if err != nil {
			return nil, apperrors.InvalidConfig(fmt.Sprintf("node %s: %v", n.ID(), err)).WithCause(err)
		}
		if b.opLog != nil {
			op = operator.WithLogging(op, b.opLog)
		}
		ops[n.ID()] = op
		if err := c.AddOperator(op); err != nil {
			return nil, err
		}
	}
	for _, n := range flat.Nodes {
		for _, dep := range n.DependsOn {
			if err := c.AddEdge(ops[dep], ops[n.ID()]); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}
