// Package sqlstore serves postings from a SQL table with one row per
// (term, document). The same statements run on PostgreSQL (lib/pq) and on
// embedded SQLite (modernc.org/sqlite).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/postgres"
)

type Store struct {
	db     *sql.DB
	table  string
	logger *slog.Logger

	lookupSQL string
	deleteSQL string
	insertSQL string
}

// New wraps an open database. table must be a plain identifier; config
// validation guarantees that for configured tables.
func New(db *sql.DB, table string) *Store {
	return &Store{
		db:        db,
		table:     table,
		logger:    slog.Default().With("component", "sql-postings", "table", table),
		lookupSQL: fmt.Sprintf("SELECT doc_id FROM %s WHERE term = $1", table),
		deleteSQL: fmt.Sprintf("DELETE FROM %s WHERE term = $1", table),
		insertSQL: fmt.Sprintf("INSERT INTO %s (term, doc_id, tf) VALUES ($1, $2, $3)", table),
	}
}

// OpenPostgres connects to PostgreSQL and ensures the postings table exists.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	db, err := postgres.Open(cfg)
	if err != nil {
		return nil, err
	}
	s := New(db, cfg.Table)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenSQLite opens (creating if needed) an SQLite postings database.
func OpenSQLite(ctx context.Context, cfg config.SQLiteConfig) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	s := New(db, cfg.Table)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the postings table when it is missing.
func (s *Store) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	term   TEXT    NOT NULL,
	doc_id BIGINT  NOT NULL,
	tf     INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (term, doc_id)
)`, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Lookup(ctx context.Context, term string) (*posting.Set, error) {
	rows, err := s.db.QueryContext(ctx, s.lookupSQL, term)
	if err != nil {
		return nil, fmt.Errorf("querying postings of %q: %w", term, err)
	}
	defer rows.Close()

	ids := make([]posting.DocumentID, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning postings of %q: %w", term, err)
		}
		if id < 0 {
			return nil, apperrors.Newf(apperrors.ErrRetrieval, "term %q has negative document id %d", term, id)
		}
		ids = append(ids, posting.DocumentID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading postings of %q: %w", term, err)
	}
	return posting.NewSet(ids...), nil
}

func (s *Store) Put(ctx context.Context, term string, entries []posting.Entry) error {
	return postgres.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.deleteSQL, term); err != nil {
			return fmt.Errorf("clearing postings of %q: %w", term, err)
		}
		if len(entries) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, s.insertSQL)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, term, int64(e.DocID), e.TermFreq); err != nil {
				return fmt.Errorf("inserting posting %s of %q: %w", e.DocID, term, err)
			}
		}
		s.logger.Debug("postings stored", "term", term, "docs", len(entries))
		return nil
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
