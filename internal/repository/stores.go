package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the same
// repository code runs inside and outside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStores is the pgx-backed Stores implementation.
type PostgresStores struct {
	pool *pgxpool.Pool // nil when tx-bound
	db   DB

	students *StudentRepository
	progress *ProgressRepository
	events   *EventRepository
}

// NewPostgresStores creates the store bundle on a connection pool.
func NewPostgresStores(pool *pgxpool.Pool) *PostgresStores {
	return newPostgresStores(pool, pool)
}

func newPostgresStores(pool *pgxpool.Pool, db DB) *PostgresStores {
	return &PostgresStores{
		pool:     pool,
		db:       db,
		students: NewStudentRepository(db),
		progress: NewProgressRepository(db),
		events:   NewEventRepository(db),
	}
}

func (s *PostgresStores) Students() StudentStore  { return s.students }
func (s *PostgresStores) Progress() ProgressStore { return s.progress }
func (s *PostgresStores) Events() EventStore      { return s.events }

// InTx runs fn against tx-bound stores in a single transaction. Nested
// calls reuse the surrounding transaction.
func (s *PostgresStores) InTx(ctx context.Context, fn func(Stores) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newPostgresStores(nil, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
