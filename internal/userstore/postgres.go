package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the Postgres store needs. pgxmock
// satisfies it for tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore is the durable Store backend, holding records in a single
// user_records table.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store backed by the given pgx pool.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("userstore: pgx pool required")
	}
	return &PostgresStore{db: db}
}

const (
	upsertSQL = `INSERT INTO user_records (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	selectSQL = `SELECT value FROM user_records WHERE key = $1`
	deleteSQL = `DELETE FROM user_records WHERE key = $1`
)

// Get returns the value for key, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx, selectSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("userstore: get %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the value for key.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.Exec(ctx, upsertSQL, key, value); err != nil {
		return fmt.Errorf("userstore: set %s: %w", key, err)
	}
	return nil
}

// Delete removes the record for key.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, deleteSQL, key); err != nil {
		return fmt.Errorf("userstore: delete %s: %w", key, err)
	}
	return nil
}

// SetAndDelete applies the write and the delete in one transaction.
func (s *PostgresStore) SetAndDelete(ctx context.Context, setKey, value, deleteKey string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("userstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, upsertSQL, setKey, value); err != nil {
		return fmt.Errorf("userstore: set %s: %w", setKey, err)
	}
	if _, err := tx.Exec(ctx, deleteSQL, deleteKey); err != nil {
		return fmt.Errorf("userstore: delete %s: %w", deleteKey, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("userstore: commit: %w", err)
	}
	return nil
}
