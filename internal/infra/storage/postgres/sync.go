package postgres

import (
	"context"
	"fmt"
	"time"
)

// SyncStore implements storage.Destination against the synced_records
// table.
type SyncStore struct {
	db *DB
}

func NewSyncStore(db *DB) *SyncStore {
	return &SyncStore{db: db}
}

// Initialize verifies connectivity and applies schema migrations. Safe to
// call repeatedly; goose tracks applied versions.
func (s *SyncStore) Initialize(ctx context.Context) error {
	if err := s.db.Health(ctx); err != nil {
		return fmt.Errorf("sync target unreachable: %w", err)
	}
	return s.db.Migrate()
}

// Write upserts one record. ON CONFLICT keeps re-migration free of
// duplicate rows.
func (s *SyncStore) Write(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO synced_records (record_key, payload, synced_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (record_key)
		DO UPDATE SET payload = EXCLUDED.payload, synced_at = EXCLUDED.synced_at`

	if _, err := s.db.ExecContext(ctx, q, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("sync write failed for %q: %w", key, err)
	}
	return nil
}

// Read returns a synced payload, for verification tooling.
func (s *SyncStore) Read(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	const q = `SELECT payload FROM synced_records WHERE record_key = $1`
	if err := s.db.GetContext(ctx, &payload, q, key); err != nil {
		return nil, fmt.Errorf("sync read failed for %q: %w", key, err)
	}
	return payload, nil
}

// Close closes the connection pool.
func (s *SyncStore) Close() error {
	return s.db.Close()
}
