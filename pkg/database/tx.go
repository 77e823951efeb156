package database

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jmoiron/sqlx"
)

// Transactor runs a function inside a single database transaction.
type Transactor struct {
	db *sqlx.DB
}

// NewTransactor wraps db.
func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// WithTx commits when fn returns nil and rolls back otherwise, including on panic.
// fn receives the transaction as an executor so repositories can accept either a tx or the pool.
func (t *Transactor) WithTx(ctx context.Context, fn func(tx sqlx.ExtContext) error) (err error) {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// AdvisoryKey folds a namespaced key into the int64 space used by pg_advisory_xact_lock.
func AdvisoryKey(parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return int64(h.Sum64())
}

// LockXact takes a transaction-scoped advisory lock; it is released on commit or rollback.
func LockXact(ctx context.Context, tx sqlx.ExecerContext, key int64) error {
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}
