// Package errors provides the structured error type used across opflow.
//
// Every error carries a machine-readable ErrorCode. Codes fall into four
// groups: configuration errors (bad call order or an invalid graph),
// consistency errors (operator state that disagrees with the container),
// execution errors (recorded per operator, never returned from Execute)
// and snapshot store errors.
//
//	if errors.Is(err, errors.ErrUninitialized) { ... }
//	code := errors.CodeOf(err)
package errors
