// Package pgstore implements the Postgres-backed store.Store on top of
// pgx/v5 and pgxpool, against the layout in schema.sql. Every method
// runs against a pgx.Tx opened by Begin, mirroring the in-memory store's
// single-transaction-per-apply-batch contract.
package pgstore

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Store is a pgxpool-backed store.Beginner.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and returns a Store. Callers must call Close when
// done.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates every table and index in schema.sql if absent. It
// is idempotent and safe to call on every process start; there is no
// separate migration tool in this repo.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("pgstore: ensure schema: %w", err)
	}
	return nil
}

// Pool exposes the underlying pool for diagnostics (health checks).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }
