package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Run executes cmd and waits for it to finish.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.New("process: binary is required")
	}

	grace := cmd.GracePeriod
	if grace == 0 {
		grace = DefaultGracePeriod
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running configured commands is the point
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdin = cmd.Stdin

	stdout := &capped{limit: cmd.MaxOutput}
	stderr := &capped{limit: cmd.MaxOutput}
	c.Stdout, c.Stderr = stdout, stderr

	// Signal the whole group so children of a shell die too.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = grace

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}

	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return res, fmt.Errorf("process: %s killed by context: %w", cmd.Binary, ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &ExitError{
			Binary:   cmd.Binary,
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(string(res.Stderr)),
			Err:      err,
		}
	}
	return res, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
}

// capped is a buffer that silently drops bytes past limit. The buffer is
// a named field so io.Copy cannot bypass Write through ReadFrom.
type capped struct {
	buf   bytes.Buffer
	limit int
}

func (c *capped) Write(p []byte) (int, error) {
	n := len(p)
	if c.limit > 0 {
		if room := c.limit - c.buf.Len(); room < len(p) {
			if room < 0 {
				room = 0
			}
			p = p[:room]
		}
	}
	c.buf.Write(p)
	return n, nil
}

func (c *capped) Bytes() []byte { return c.buf.Bytes() }
