package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

// WithTimeout runs fn under a context that expires after timeout. Expiry of
// the derived deadline (not of the parent) is reported as errors.ErrTimeout
// so callers can tell a slow store from an interrupted run. fn must honour
// ctx; no goroutine is left behind.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := fn(timeoutCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w (limit: %v): %w", name, apperrors.ErrTimeout, timeout, err)
	}
	return err
}
