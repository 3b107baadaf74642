// Package db holds hand-written pgx repositories over the relational schema
// in pkg/database/migrations. Each repository method owns its own SQL; there
// is no query builder or ORM layer between this package and Postgres.
package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by Get-style methods when no row matches.
var ErrNotFound = errors.New("db: not found")

// Store is the shared handle every repository method runs against. The pool
// is owned by the caller (see pkg/database.Client.Pool); Store never opens
// or closes it.
type Store struct {
	pool *pgxpool.Pool
}

// New builds a Store over an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool exposes the underlying pool for callers that need to issue raw
// statements this package doesn't wrap — notably pgnotify.Notify, which
// needs a bare executor rather than a repository method.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
