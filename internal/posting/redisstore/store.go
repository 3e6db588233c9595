// Package redisstore serves postings from Redis. Each term is a hash at
// <prefix><term> whose fields are decimal document ids and whose values are
// term frequencies, so a lookup is a single HGETALL.
package redisstore

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/resilience"
)

// HashClient is the subset of the Redis client the store needs.
type HashClient interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	ReplaceHash(ctx context.Context, key string, fields map[string]any) error
	Ping(ctx context.Context) error
	Close() error
}

var _ HashClient = (*pkgredis.Client)(nil)

type Store struct {
	client HashClient
	prefix string
	logger *slog.Logger
}

func New(client HashClient, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
		logger: slog.Default().With("component", "redis-postings"),
	}
}

func (s *Store) key(term string) string {
	return s.prefix + term
}

func (s *Store) Lookup(ctx context.Context, term string) (*posting.Set, error) {
	fields, err := s.client.HGetAll(ctx, s.key(term))
	if err != nil {
		return nil, fmt.Errorf("hgetall %q: %w", s.key(term), err)
	}
	ids := make([]posting.DocumentID, 0, len(fields))
	for field := range fields {
		id, err := posting.ParseDocumentID(field)
		if err != nil {
			return nil, apperrors.Retrieval(fmt.Sprintf("decoding postings of %q", term),
				resilience.Permanent(fmt.Errorf("field %q: %w", field, err)))
		}
		ids = append(ids, id)
	}
	return posting.NewSet(ids...), nil
}

func (s *Store) Put(ctx context.Context, term string, entries []posting.Entry) error {
	fields := make(map[string]any, len(entries))
	for _, e := range entries {
		fields[e.DocID.String()] = strconv.Itoa(e.TermFreq)
	}
	if err := s.client.ReplaceHash(ctx, s.key(term), fields); err != nil {
		return fmt.Errorf("storing postings of %q: %w", term, err)
	}
	s.logger.Debug("postings stored", "term", term, "docs", len(entries))
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Store) Close() error {
	return s.client.Close()
}
