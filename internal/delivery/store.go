package delivery

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/semaphore"
)

// PgxIface narrows pgx to the operations this store uses, so tests can
// substitute github.com/pashagolub/pgxmock/v4 for a real connection.
// Grounded verbatim on driver/alt_db/repository.go's PgxIface.
type PgxIface interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

var _ PgxIface = (*pgxpool.Pool)(nil)

// Store is the §4.5 delivery-history store. gate bounds the number of
// concurrently in-flight operations on top of the pool's own connection
// limit, per spec "the store uses a bounded connection pool
// (semaphore-gated)".
type Store struct {
	pool *pgxpool.Pool
	db   PgxIface
	gate *semaphore.Weighted
}

func New(pool *pgxpool.Pool, maxConcurrentOps int64) *Store {
	return &Store{pool: pool, db: pool, gate: semaphore.NewWeighted(maxConcurrentOps)}
}

// NewWithDB substitutes db for tests (pgxmock).
func NewWithDB(db PgxIface, maxConcurrentOps int64) *Store {
	return &Store{db: db, gate: semaphore.NewWeighted(maxConcurrentOps)}
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { s.gate.Release(1) }, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
