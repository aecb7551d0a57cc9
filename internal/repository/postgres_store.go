package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PostgresStore keeps every key as one JSONB row of the kv_store table.
type PostgresStore struct {
	db Database
}

// NewPostgresStore creates a store on top of the given database handle.
func NewPostgresStore(db Database) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the kv_store table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, CreateKVTableSQL); err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}

	return nil
}

// Get returns the raw JSON stored under key, or ErrKeyNotFound.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.QueryRow(ctx, SelectValueSQL, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get value for key %q: %w", key, err)
	}

	return value, nil
}

// Exists reports whether the key is present, regardless of its value.
func (s *PostgresStore) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool

	if err := s.db.QueryRow(ctx, ExistsKeySQL, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check key %q: %w", key, err)
	}

	return exists, nil
}

// Put upserts all entries in a single transaction.
func (s *PostgresStore) Put(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for _, entry := range entries {
		if _, err = tx.Exec(ctx, UpsertValueSQL, entry.Key, entry.Value); err != nil {
			return fmt.Errorf("failed to upsert key %q: %w", entry.Key, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, DeleteKeySQL, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}

	return nil
}
