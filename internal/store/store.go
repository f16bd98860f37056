// Package store wires the pgxpool connection and provides the scoped
// transaction acquisition every domain package runs its writes inside,
// guaranteeing release on every exit path per spec §9.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store holds the process-wide connection pool. One Store is built at
// startup and injected into every repository/domain package that needs
// database access.
type Store struct {
	Pool *pgxpool.Pool
}

// Open builds a pgxpool from a DSN, matching the single-acquisition
// pattern used throughout the example pack's pgx-based repositories.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

// TxFunc is the body of a scoped transaction. Returning an error rolls
// the transaction back; returning nil commits it.
type TxFunc func(ctx context.Context, tx pgx.Tx) error

// WithTx runs fn inside a single serializable transaction, matching the
// isolation level the Hold Engine requires (spec §4.F). The transaction
// is always rolled back or committed before WithTx returns; no caller
// ever holds a transaction open across a suspension point that this
// function does not control.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn TxFunc) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op if already committed
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit tx: %w", err)
	}
	return nil
}
