// Package store is the persistence façade: scoped transactional sessions
// over Postgres, and the repositories for every domain entity.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("store: record not found")

// DBTX is satisfied by both *sql.DB and *sql.Tx, so repositories can be
// handed either a pooled connection or an open transaction transparently.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store owns the pool and hands out a scoped session per unit of work.
type Store struct {
	DB  *sql.DB
	log zerolog.Logger
}

func Open(dsn string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{DB: db, log: log.With().Str("component", "store").Logger()}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// ScopedSession begins a transaction and runs fn with it. On normal return
// the caller must have committed (via SafeCommit) or the transaction closes
// without committing; on panic or error it is rolled back.
func (s *Store) ScopedSession(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		// A no-op once fn has committed; otherwise this closes the
		// transaction without committing, whether or not fn failed.
		_ = tx.Rollback()
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return nil
}

// SafeCommit attempts to commit tx, rolling back and returning false on failure.
func SafeCommit(tx *sql.Tx, log zerolog.Logger) bool {
	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("commit failed, rolling back")
		_ = tx.Rollback()
		return false
	}
	return true
}
