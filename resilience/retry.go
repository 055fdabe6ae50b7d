package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	apperrors "github.com/kbukum/opflow/errors"
)

// Backoff computes exponential delays between attempts.
type Backoff struct {
	Initial time.Duration `mapstructure:"initial"`
	Max     time.Duration `mapstructure:"max"`
	Factor  float64       `mapstructure:"factor"`
	// Jitter spreads each delay by up to ±Jitter of its value (0 to 1).
	Jitter float64 `mapstructure:"jitter"`
}

// Delay returns the wait before retry n (1-based). r is a uniform sample
// in [0, 1) used for jitter. The result lies in [0, Max].
func (b Backoff) Delay(n int, r float64) time.Duration {
	d := float64(b.Initial) * math.Pow(b.Factor, float64(n-1))
	if b.Jitter > 0 {
		d += (2*r - 1) * b.Jitter * d
	}
	if limit := float64(b.Max); d > limit {
		d = limit
	}
	return time.Duration(max(d, 0))
}

func (b *Backoff) normalize() {
	if b.Initial <= 0 {
		b.Initial = 100 * time.Millisecond
	}
	if b.Max <= 0 {
		b.Max = 10 * time.Second
	}
	if b.Factor < 1 {
		b.Factor = 2
	}
	b.Jitter = min(max(b.Jitter, 0), 1)
}

// Policy decides how often and how patiently a call is retried.
type Policy struct {
	// Attempts counts the first call. Values below 1 mean 3.
	Attempts int     `mapstructure:"attempts"`
	Backoff  Backoff `mapstructure:"backoff"`

	// RetryIf reports whether err is worth another attempt. Defaults to Retryable.
	RetryIf func(err error) bool `mapstructure:"-"`
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration) `mapstructure:"-"`

	rand func() float64
}

// DefaultPolicy retries three times with delays starting at 100ms.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Backoff:  Backoff{Initial: 100 * time.Millisecond, Max: 10 * time.Second, Factor: 2, Jitter: 0.1},
	}
}

// SnapshotPolicy keeps delays short: a run waits on every incremental
// snapshot write.
func SnapshotPolicy(attempts int) Policy {
	return Policy{
		Attempts: attempts,
		Backoff:  Backoff{Initial: 20 * time.Millisecond, Max: 500 * time.Millisecond, Factor: 2, Jitter: 0.2},
	}
}

// Retryable is the default RetryIf. Context errors are final. AppErrors
// retry only when flagged retryable. Anything else is assumed transient.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Retryable
	}
	return true
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. The last error is returned unwrapped. Cancelling ctx
// aborts the wait with ctx.Err().
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if p.Attempts < 1 {
		p.Attempts = 3
	}
	p.Backoff.normalize()
	if p.RetryIf == nil {
		p.RetryIf = Retryable
	}
	if p.rand == nil {
		p.rand = rand.Float64
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= p.Attempts || !p.RetryIf(err) {
			return zero, err
		}

		wait := p.Backoff.Delay(attempt, p.rand())
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
	}
}

// DoErr is Do for calls without a result.
func DoErr(ctx context.Context, p Policy, fn func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
