// internal/repository/postgres/db.go
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB bundles the connection pool with the transaction entry point the
// workflow stores build on. Repositories run single statements against the
// pool; anything that must move a customer, coupon and balance together
// goes through BeginTx.
type DB struct {
	pool *pgxpool.Pool
}

func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// BeginTx opens a transaction at the pool's default isolation level. The
// stores retry on serialization failures, so callers must be safe to rerun.
func (db *DB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.pool.Begin(ctx)
}

// Pool exposes the underlying pool for repositories and health checks.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}
