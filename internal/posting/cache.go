package posting

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
)

// CachedStore memoises lookups for the lifetime of a batch run. Concurrent
// lookups of the same term share one store call. Failed lookups are not
// cached. Sets are immutable, so cached values are shared without copying.
// A caller whose context ends stops waiting without failing the others.
type CachedStore struct {
	next    Store
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]*Set
	m       *metrics.Metrics
	hits    atomic.Int64
	misses  atomic.Int64
}

// Cache wraps next; m may be nil.
func Cache(next Store, m *metrics.Metrics) *CachedStore {
	return &CachedStore{
		next:    next,
		entries: make(map[string]*Set),
		m:       m,
	}
}

func (c *CachedStore) Lookup(ctx context.Context, term string) (*Set, error) {
	c.mu.RLock()
	set, ok := c.entries[term]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		if c.m != nil {
			c.m.CacheHitsTotal.Inc()
		}
		return set, nil
	}

	// The shared fetch must not inherit one caller's deadline; each caller
	// stops waiting on its own context instead. Remote stores still bound
	// the fetch with their per-call timeout.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(term, func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.entries[term]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		c.misses.Add(1)
		if c.m != nil {
			c.m.CacheMissesTotal.Inc()
		}
		fetched, err := c.next.Lookup(fetchCtx, term)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[term] = fetched
		c.mu.Unlock()
		return fetched, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Set), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *CachedStore) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachedStore) Ping(ctx context.Context) error {
	if p, ok := c.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *CachedStore) Close() error {
	return c.next.Close()
}
