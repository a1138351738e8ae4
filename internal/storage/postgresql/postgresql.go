package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"competition-ledger/internal/config"
)

type txKey struct{}

type Storage struct {
	db *sqlx.DB
}

func Init(cfg config.PostgresConfig) *Storage {
	const op = "storage.postgresql.Init"

	s, err := Open(cfg.DSN())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	return s
}

func Open(dsn string) (*Storage, error) {
	const op = "storage.postgresql.Open"

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open db: %w", op, err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to ping db: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) GetDB() *sqlx.DB {
	return s.db
}

func (s *Storage) Close() {
	if s.db != nil {
		stats := s.db.Stats()
		log.Printf("closing db: in_use=%d idle=%d", stats.InUse, stats.Idle)
		s.db.Close()
	}
}

// Conn is the database handle a repository talks to.
type Conn interface {
	Executor(ctx context.Context) sqlx.ExtContext
}

// Executor returns the transaction carried by ctx, or the pool outside of one.
func (s *Storage) Executor(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return s.db
}

// WithinTx runs fn in a transaction. Nested calls join the outer transaction.
func (s *Storage) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	const op = "storage.postgresql.WithinTx"

	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("%s: failed to begin: %w", op, err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Printf("%s: rollback failed: %v", op, err)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// Lock takes transaction-scoped advisory locks. Keys are sorted first so two
// writers asking for overlapping keys always acquire them in the same order.
func (s *Storage) Lock(ctx context.Context, keys ...string) error {
	const op = "storage.postgresql.Lock"

	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	if !ok {
		return fmt.Errorf("%s: lock requested outside of a transaction", op)
	}

	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	for _, key := range sorted {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("%s: failed to lock %s: %w", op, key, err)
		}
	}

	return nil
}
