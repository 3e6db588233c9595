package posting

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
)

// InstrumentedStore records lookup counts and latency per backend.
type InstrumentedStore struct {
	next    Store
	backend string
	m       *metrics.Metrics
}

func Instrument(next Store, backend string, m *metrics.Metrics) *InstrumentedStore {
	return &InstrumentedStore{next: next, backend: backend, m: m}
}

func (s *InstrumentedStore) Lookup(ctx context.Context, term string) (*Set, error) {
	start := time.Now()
	set, err := s.next.Lookup(ctx, term)
	s.m.PostingLookupLatency.WithLabelValues(s.backend).Observe(time.Since(start).Seconds())
	status := "hit"
	switch {
	case err != nil:
		status = "error"
	case set.IsEmpty():
		status = "miss"
	}
	s.m.PostingLookupsTotal.WithLabelValues(s.backend, status).Inc()
	return set, err
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}
