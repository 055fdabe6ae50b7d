// Package resilience retries calls that can fail transiently, such as
// snapshot store writes, with capped exponential backoff.
//
//	err := resilience.DoErr(ctx, resilience.SnapshotPolicy(3), func(ctx context.Context) error {
//	    return store.Write(ctx, snap)
//	})
package resilience
