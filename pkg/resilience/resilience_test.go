package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

var errFlaky = errors.New("connection reset")

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "lookup", fastRetry(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "lookup", fastRetry(2), func(ctx context.Context) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 2, calls)
}

func TestRetryStopsOnPermanent(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "lookup", fastRetry(5), func(ctx context.Context) error {
		calls++
		return Permanent(errFlaky)
	})
	assert.ErrorIs(t, err, ErrPermanent)
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestRetryHonoursRetryable(t *testing.T) {
	calls := 0
	cfg := fastRetry(5)
	cfg.Retryable = func(err error) bool { return !errors.Is(err, errFlaky) }
	err := Retry(context.Background(), "lookup", cfg, func(ctx context.Context) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "lookup", fastRetry(3), func(ctx context.Context) error {
		return errFlaky
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithTimeoutReportsErrTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 5*time.Millisecond, "hgetall", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeoutParentCancelled(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithTimeout(parent, time.Second, "hgetall", func(ctx context.Context) error {
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, apperrors.ErrTimeout)
}

func TestWithTimeoutDisabled(t *testing.T) {
	called := false
	err := WithTimeout(context.Background(), 0, "noop", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		called = !hasDeadline
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestCircuitBreakerLifecycle(t *testing.T) {
	var transitions []State
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		OnStateChange:    func(_ string, to State) { transitions = append(transitions, to) },
	})
	now := time.Unix(1000, 0)
	cb.now = func() time.Time { return now }

	fail := func() error { return errFlaky }
	ok := func() error { return nil }

	assert.ErrorIs(t, cb.Execute(fail), errFlaky)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Execute(fail), errFlaky)
	assert.Equal(t, StateOpen, cb.GetState())

	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestCircuitBreakerIgnoresNonFailures(t *testing.T) {
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, context.Canceled) },
	})
	_ = cb.Execute(func() error { return context.Canceled })
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreakerHalfOpenProbeFails(t *testing.T) {
	cb := NewCircuitBreaker("postgres", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	now := time.Unix(0, 0)
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errFlaky })
	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errFlaky })
	assert.Equal(t, StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestExecuteContextSkipsCallerExpiry(t *testing.T) {
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		err := cb.ExecuteContext(ctx, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.Equal(t, StateClosed, cb.GetState())

	for i := 0; i < 2; i++ {
		err := cb.ExecuteContext(context.Background(), func(context.Context) error { return errFlaky })
		assert.ErrorIs(t, err, errFlaky)
	}
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestExecuteContextReleasesHalfOpenSlot(t *testing.T) {
	cb := NewCircuitBreaker("postgres", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	now := time.Unix(0, 0)
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errFlaky })
	now = now.Add(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := cb.ExecuteContext(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateHalfOpen, cb.GetState())

	require.NoError(t, cb.ExecuteContext(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
}
