package posting

import (
	"context"
	"sync"
)

// MemoryStore keeps postings in process. It backs local runs from a postings
// TSV file and stands in for remote stores in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	index map[string]map[DocumentID]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index: make(map[string]map[DocumentID]int),
	}
}

func (m *MemoryStore) Put(_ context.Context, term string, entries []Entry) error {
	docs := make(map[DocumentID]int, len(entries))
	for _, e := range entries {
		docs[e.DocID] = e.TermFreq
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index[term] = docs
	return nil
}

func (m *MemoryStore) Lookup(ctx context.Context, term string) (*Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs, exists := m.index[term]
	if !exists {
		return NewSet(), nil
	}
	ids := make([]DocumentID, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	return NewSet(ids...), nil
}

// Entries returns the stored postings for term, unordered.
func (m *MemoryStore) Entries(term string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.index[term]
	entries := make([]Entry, 0, len(docs))
	for id, tf := range docs {
		entries = append(entries, Entry{DocID: id, TermFreq: tf})
	}
	return entries
}

func (m *MemoryStore) Terms() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index)
}

func (m *MemoryStore) Close() error {
	return nil
}
