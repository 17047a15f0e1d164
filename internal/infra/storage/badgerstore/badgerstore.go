// Package badgerstore adapts BadgerDB to the Destination port. Badger is
// the larger-capacity embedded store records migrate into; writes are
// per-key upserts, so re-migrating a key is overwrite-safe by construction.
package badgerstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/coachbook/mover/internal/infra/storage"
)

// Config holds BadgerDB settings.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory is
	// set.
	Path string `yaml:"path"`

	// InMemory disables disk persistence; used by tests and the memory
	// storage mode.
	InMemory bool `yaml:"in_memory"`

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool `yaml:"sync_writes"`
}

// Store implements storage.Destination on top of BadgerDB.
type Store struct {
	cfg Config

	mu sync.Mutex
	db *badger.DB
}

// NewStore creates an unopened store. The database opens on Initialize so
// the orchestrator controls when (and under which guard) that happens.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// Initialize opens the database. Idempotent: a second call against an open
// store is a no-op, which keeps re-entrant migration starts cheap.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	opts := badger.DefaultOptions(s.cfg.Path).
		WithInMemory(s.cfg.InMemory).
		WithSyncWrites(s.cfg.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger at %q: %w", s.cfg.Path, err)
	}
	s.db = db
	return nil
}

// Write upserts the payload under key.
func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("write failed for %q: %w", key, err)
	}
	return nil
}

// Read returns a stored payload. Not part of the Destination port; used by
// verification and tests.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	var value []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read failed for %q: %w", key, err)
	}
	return value, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) handle() (*badger.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, storage.ErrNotInitialized
	}
	return s.db, nil
}
