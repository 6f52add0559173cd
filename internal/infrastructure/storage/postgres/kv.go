// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// KVStore keeps document-scoped state in a plugin_state table, one row per
// key per document. Implements storage.Store for a fixed document id.
type KVStore struct {
	pool       *pgxpool.Pool
	documentID string
	ownsPool   bool
}

const kvSchema = `
CREATE TABLE IF NOT EXISTS plugin_state (
	document_id TEXT NOT NULL,
	key         TEXT NOT NULL,
	value       TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (document_id, key)
);`

// NewKVStore connects to dsn and scopes all operations to documentID.
func NewKVStore(ctx context.Context, dsn, documentID string) (*KVStore, error) {
	if documentID == "" {
		return nil, errors.New("postgres: document id required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, kvSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &KVStore{pool: pool, documentID: documentID, ownsPool: true}, nil
}

// NewKVStoreFromPool wraps an existing pool (shared with the journal repo).
func NewKVStoreFromPool(pool *pgxpool.Pool, documentID string) *KVStore {
	return &KVStore{pool: pool, documentID: documentID}
}

// Pool exposes the underlying pool for components sharing the connection.
func (s *KVStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Get implements storage.Store.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT value FROM plugin_state
		WHERE document_id = $1 AND key = $2`,
		s.documentID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements storage.Store.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO plugin_state (document_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.documentID, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete implements storage.Store.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM plugin_state
		WHERE document_id = $1 AND key = $2`,
		s.documentID, key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Close implements storage.Store. Pools passed in from outside are left
// open for their owner to close.
func (s *KVStore) Close() error {
	if s.ownsPool {
		s.pool.Close()
	}
	return nil
}
