package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/resilience"
)

// GuardConfig is the transport policy applied to a remote posting store.
type GuardConfig struct {
	Name    string
	Timeout time.Duration
	Retry   resilience.RetryConfig
	Breaker resilience.CircuitBreakerConfig
}

// GuardedStore bounds every lookup with a timeout, retries transient
// failures and stops calling a store that keeps failing. Only transport
// errors and the guard's own timeouts count against the breaker; a lookup
// abandoned because the caller's context ended does not. Whatever still
// fails is reported as errors.ErrRetrieval.
type GuardedStore struct {
	next    Store
	cfg     GuardConfig
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

func Guard(next Store, cfg GuardConfig) *GuardedStore {
	if cfg.Breaker.IsFailure == nil {
		cfg.Breaker.IsFailure = func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}
	}
	return &GuardedStore{
		next:    next,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker(cfg.Name, cfg.Breaker),
		logger:  slog.Default().With("component", "posting-guard", "store", cfg.Name),
	}
}

func (g *GuardedStore) Lookup(ctx context.Context, term string) (*Set, error) {
	var set *Set
	err := resilience.Retry(ctx, "posting lookup", g.cfg.Retry, func(ctx context.Context) error {
		return g.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
			return resilience.WithTimeout(ctx, g.cfg.Timeout, "posting lookup", func(ctx context.Context) error {
				s, err := g.next.Lookup(ctx, term)
				if err != nil {
					return err
				}
				set = s
				return nil
			})
		})
	})
	if err != nil {
		g.logger.Debug("lookup failed", "term", term, "error", err)
		return nil, apperrors.Retrieval(fmt.Sprintf("lookup %q in %s", term, g.cfg.Name), err)
	}
	return set, nil
}

func (g *GuardedStore) BreakerState() resilience.State {
	return g.breaker.GetState()
}

func (g *GuardedStore) Ping(ctx context.Context) error {
	if p, ok := g.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (g *GuardedStore) Close() error {
	return g.next.Close()
}
