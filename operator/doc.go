// Package operator defines the unit of work scheduled by a container.
//
// An Operator is named, stateful and executes once per scheduling attempt.
// Its life cycle is IDLE → RUNNING → SUCCEEDED | FAILED; IDLE is also the
// reset state. Every operator carries a data-model tag (DEFAULT, BATCH or
// STREAMING) which must match the container it runs in.
//
// Most operators embed *Base, which implements everything except Execute:
//
//	type extract struct{ *operator.Base }
//
//	func (e *extract) Execute(ctx context.Context) error { ... }
//
//	op := &extract{Base: operator.NewBase("extract", operator.Batch)}
//
// For simple cases Func builds an operator from a function.
package operator
