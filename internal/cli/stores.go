package cli

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting/boltstore"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting/redisstore"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting/sqlstore"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/resilience"
)

// writableStore is a posting backend that accepts imported postings.
type writableStore interface {
	posting.Store
	posting.Writer
}

// openBackend opens the configured posting backend without decorators.
func openBackend(ctx context.Context, c *config.Config, readOnly bool) (writableStore, error) {
	switch c.Postings.Backend {
	case config.BackendMemory:
		store := posting.NewMemoryStore()
		if c.Postings.Path != "" {
			if _, err := posting.LoadTSV(ctx, c.Postings.Path, store); err != nil {
				return nil, err
			}
		}
		return store, nil
	case config.BackendRedis:
		client, err := pkgredis.NewClient(c.Redis)
		if err != nil {
			return nil, err
		}
		return redisstore.New(client, c.Redis.KeyPrefix), nil
	case config.BackendPostgres:
		return sqlstore.OpenPostgres(ctx, c.Postgres)
	case config.BackendSQLite:
		return sqlstore.OpenSQLite(ctx, c.SQLite)
	case config.BackendBolt:
		return boltstore.Open(c.Bolt, readOnly)
	default:
		return nil, fmt.Errorf("unknown postings backend %q", c.Postings.Backend)
	}
}

func isRemote(backend string) bool {
	return backend == config.BackendRedis || backend == config.BackendPostgres
}

// openPostings opens the posting store used for queries: remote backends
// are guarded, and lookups are instrumented and cached when configured.
func openPostings(ctx context.Context, c *config.Config, m *metrics.Metrics) (posting.Store, error) {
	backend, err := openBackend(ctx, c, true)
	if err != nil {
		return nil, fmt.Errorf("opening %s posting store: %w", c.Postings.Backend, err)
	}

	var store posting.Store = backend
	if isRemote(c.Postings.Backend) {
		breaker := resilience.CircuitBreakerConfig{
			FailureThreshold: c.Postings.BreakerFailures,
			ResetTimeout:     c.Postings.BreakerReset,
		}
		if m != nil {
			breaker.OnStateChange = func(name string, to resilience.State) {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		}
		store = posting.Guard(store, posting.GuardConfig{
			Name:    c.Postings.Backend,
			Timeout: c.Postings.Timeout,
			Retry: resilience.RetryConfig{
				MaxAttempts:  c.Postings.RetryAttempts,
				InitialDelay: c.Postings.RetryDelay,
			},
			Breaker: breaker,
		})
	}
	if m != nil {
		store = posting.Instrument(store, c.Postings.Backend, m)
	}
	if c.Postings.Cache {
		store = posting.Cache(store, m)
	}
	return store, nil
}

func openCollection(ctx context.Context, c *config.Config, m *metrics.Metrics) (collection.Store, error) {
	var (
		store collection.Store
		err   error
	)
	switch c.Collection.Backend {
	case config.CollectionMinio:
		store, err = collection.OpenMinio(ctx, c.Minio, c.Collection.Path, c.Collection.Timeout)
	default:
		store, err = collection.OpenFile(c.Collection.Path)
	}
	if err != nil {
		return nil, err
	}
	if m != nil {
		store = collection.Instrument(store, m)
	}
	return store, nil
}
