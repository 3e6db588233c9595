// Package boltstore serves postings from an embedded bbolt database. Each
// term is one key in a bucket; the value is the JSON list of its entries.
package boltstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	bolt "go.etcd.io/bbolt"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/resilience"
)

type Store struct {
	db     *bolt.DB
	bucket []byte
	logger *slog.Logger
}

// Open opens the database at cfg.Path. A read-only store shares the file
// with other readers; a writable one creates the bucket if needed.
func Open(cfg config.BoltConfig, readOnly bool) (*Store, error) {
	if cfg.Path == "" {
		return nil, os.ErrInvalid
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "postings"
	}

	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{
		Timeout:  cfg.Timeout,
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database %s: %w", cfg.Path, err)
	}

	if !readOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(bucket))
			return err
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating bucket %s: %w", bucket, err)
		}
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
		logger: slog.Default().With("component", "bolt-postings", "path", cfg.Path),
	}, nil
}

func (s *Store) Lookup(ctx context.Context, term string) (*posting.Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entries []posting.Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(term))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return resilience.Permanent(fmt.Errorf("decoding postings of %q: %w", term, err))
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Retrieval(fmt.Sprintf("bolt lookup %q", term), err)
	}
	return posting.SetFromEntries(entries), nil
}

func (s *Store) Put(ctx context.Context, term string, entries []posting.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if term == "" {
		return errors.New("empty term")
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding postings of %q: %w", term, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return b.Delete([]byte(term))
		}
		return b.Put([]byte(term), raw)
	})
}

// Terms reports how many terms the bucket holds.
func (s *Store) Terms() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(s.bucket); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}

func (s *Store) Ping(context.Context) error {
	return s.db.View(func(*bolt.Tx) error { return nil })
}

func (s *Store) Close() error {
	return s.db.Close()
}
