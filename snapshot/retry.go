package snapshot

import (
	"context"
	"io"
	"time"

	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/resilience"
)

// retryStore retries retryable failures of the wrapped store.
type retryStore struct {
	inner Store
	p     resilience.Policy
}

// WithRetry wraps store so every call is retried according to p. Each
// retry is logged at warn level.
func WithRetry(store Store, p resilience.Policy, log *logger.Logger) Store {
	if p.OnRetry == nil && log != nil {
		p.OnRetry = func(attempt int, err error, backoff time.Duration) {
			log.Warn("retrying snapshot store call", logger.Fields(
				"attempt", attempt,
				"backoff", backoff.String(),
				logger.FieldError, err.Error(),
			))
		}
	}
	return &retryStore{inner: store, p: p}
}

func (r *retryStore) Write(ctx context.Context, snap *ContainerSnapshot) error {
	return resilience.DoErr(ctx, r.p, func(ctx context.Context) error {
		return r.inner.Write(ctx, snap)
	})
}

func (r *retryStore) ListRecent(ctx context.Context, container, name string, limit int) ([]*operator.Snapshot, error) {
	return resilience.Do(ctx, r.p, func(ctx context.Context) ([]*operator.Snapshot, error) {
		return r.inner.ListRecent(ctx, container, name, limit)
	})
}

func (r *retryStore) ListContainer(ctx context.Context, container string, limit int) ([]*ContainerSnapshot, error) {
	return resilience.Do(ctx, r.p, func(ctx context.Context) ([]*ContainerSnapshot, error) {
		return r.inner.ListContainer(ctx, container, limit)
	})
}

// Close closes the wrapped store if it holds resources.
func (r *retryStore) Close() error {
	return Close(r.inner)
}

// Unwrap returns the wrapped store.
func (r *retryStore) Unwrap() Store { return r.inner }

// Close releases a store's resources when it implements io.Closer.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
