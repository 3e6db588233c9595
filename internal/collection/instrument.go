package collection

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
)

// InstrumentedStore counts snippet fetches by status.
type InstrumentedStore struct {
	next Store
	m    *metrics.Metrics
}

func Instrument(next Store, m *metrics.Metrics) *InstrumentedStore {
	return &InstrumentedStore{next: next, m: m}
}

func (s *InstrumentedStore) Snippet(ctx context.Context, id posting.DocumentID, maxLength int) (string, error) {
	line, err := s.next.Snippet(ctx, id, maxLength)
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.m.SnippetFetchesTotal.WithLabelValues(status).Inc()
	return line, err
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(posting.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}
