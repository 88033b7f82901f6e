package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is one of the two relational stores (dev or live). It owns a
// half-open global_profile_id range fixed at construction, per spec §3's
// "the live store allocates from a range strictly above the dev store's
// maximum, fixed at store-creation time" invariant.
type Store struct {
	pool    *pgxpool.Pool
	name    string // "dev" | "live"
	idBase  int64
	idWidth int64
}

// Name reports which logical store this is ("dev" or "live").
func (s *Store) Name() string { return s.name }

// New opens a pool against dsn, ensures the schema exists, and returns a
// Store scoped to [idBase, idBase+idWidth).
func New(ctx context.Context, name, dsn string, idBase, idWidth int64) (*Store, error) {
	pool, err := newPgPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{pool: pool, name: name, idBase: idBase, idWidth: idWidth}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
