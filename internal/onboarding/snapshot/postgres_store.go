package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	selectSnapshotSQL = `SELECT payload FROM onboarding_snapshots WHERE session_key = $1`
	upsertSnapshotSQL = `INSERT INTO onboarding_snapshots (session_key, payload, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (session_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`
	deleteSnapshotSQL = `DELETE FROM onboarding_snapshots WHERE session_key = $1`
)

// PostgresStore keeps snapshots in a JSONB column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, selectSnapshotSQL, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot %s: %w", key, err)
	}
	return payload, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertSnapshotSQL, key, string(value)); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteSnapshotSQL, key); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Name() string { return "postgres" }
