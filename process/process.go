// Package process runs subprocesses for shell operators.
//
// Run captures the output of a command, kills its whole process group on
// context cancellation (SIGTERM, then SIGKILL after GracePeriod) and
// reports non-zero exits as *ExitError.
package process

import (
	"fmt"
	"io"
	"time"
)

// DefaultGracePeriod is used when Command.GracePeriod is zero.
const DefaultGracePeriod = 5 * time.Second

// Command configures a subprocess.
type Command struct {
	// Binary is the executable path or name, resolved through PATH.
	Binary string
	Args   []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env holds extra KEY=value pairs appended to the parent environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod is the wait between SIGTERM and SIGKILL.
	GracePeriod time.Duration
	// MaxOutput caps the bytes kept from each of stdout and stderr; zero
	// keeps everything.
	MaxOutput int
}

// Shell returns a Command that runs script through /bin/sh -c.
func Shell(script string) Command {
	return Command{Binary: "/bin/sh", Args: []string{"-c", script}}
}

// Result holds the output of a finished subprocess.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int // -1 if killed by a signal
	Duration time.Duration
}

// ExitError reports a subprocess that exited unsuccessfully.
type ExitError struct {
	Binary   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("process: %s exited with code %d: %s", e.Binary, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("process: %s exited with code %d", e.Binary, e.ExitCode)
}

func (e *ExitError) Unwrap() error { return e.Err }
