// Package testutil provides a configurable MockOperator for container and
// pipeline tests.
package testutil
