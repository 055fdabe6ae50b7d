package operator

import "context"

// ExecuteFunc is the body of a Func operator.
type ExecuteFunc func(ctx context.Context) error

// Func is an operator backed by a plain function.
type Func struct {
	*Base
	fn ExecuteFunc
}

var _ Operator = (*Func)(nil)

// New creates a DEFAULT-model operator running fn.
func New(name string, fn ExecuteFunc) *Func {
	return &Func{Base: NewBase(name, Default), fn: fn}
}

// NewBatch creates a BATCH-model operator running fn.
func NewBatch(name string, fn ExecuteFunc) *Func {
	return &Func{Base: NewBase(name, Batch), fn: fn}
}

// NewStreaming creates a STREAMING-model operator running fn.
func NewStreaming(name string, fn ExecuteFunc) *Func {
	return &Func{Base: NewBase(name, Streaming), fn: fn}
}

// Execute runs the wrapped function. A nil function succeeds.
func (f *Func) Execute(ctx context.Context) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx)
}

// Dummy returns an operator that does nothing and succeeds. It is used as a
// join point when several branches must fan into one node.
func Dummy(name string, model DataModel) *Func {
	return &Func{Base: NewBase(name, model)}
}
