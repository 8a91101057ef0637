package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/shiftdesk/internal/store"
)

var _ store.BlobStore = (*BlobStore)(nil)

// BlobStore implements store.BlobStore using PostgreSQL.
type BlobStore struct {
	pool *pgxpool.Pool
}

// NewBlobStore creates a new PostgreSQL-backed blob store on a shared pool.
func NewBlobStore(pool *pgxpool.Pool) *BlobStore {
	return &BlobStore{
		pool: pool,
	}
}

// Get retrieves the value stored under key.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM blobs WHERE key = $1`

	var value []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get blob %s: %w", key, mapPostgresError(err))
	}

	return value, nil
}

// Put upserts the value stored under key.
func (s *BlobStore) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}

	query := `
		INSERT INTO blobs (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to put blob %s: %w", key, mapPostgresError(err))
	}

	log.Debug().
		Str("key", key).
		Int("bytes", len(value)).
		Msg("Stored blob")

	return nil
}

// Delete removes key.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM blobs WHERE key = $1`

	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, mapPostgresError(err))
	}

	return nil
}
