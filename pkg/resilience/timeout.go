package resilience

import (
	"context"
	"fmt"
	"time"
)

// WithTimeout runs fn under a derived context that expires after timeout.
// A non-positive timeout disables the bound. The wrapped function keeps
// running in its goroutine after a timeout; fn must honour ctx if it needs
// to stop early.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	boundedCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(boundedCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-boundedCtx.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
		}
		return fmt.Errorf("%s: %w after %v", name, context.DeadlineExceeded, timeout)
	}
}
