// Package memory provides in-process implementations of both storage
// ports, used by tests and by the memory storage mode when no real
// backends are configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/coachbook/mover/internal/core/domain"
	"github.com/coachbook/mover/internal/infra/storage"
)

// Store holds records for both ports.
type Store struct {
	mu       sync.RWMutex
	payloads map[string][]byte
	meta     map[string]*domain.ItemMetadata
}

func NewStore() *Store {
	return &Store{
		payloads: make(map[string][]byte),
		meta:     make(map[string]*domain.ItemMetadata),
	}
}

// Seed inserts a record, for tests and fixtures.
func (s *Store) Seed(key string, payload []byte, meta *domain.ItemMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[key] = payload
	if meta != nil {
		s.meta[key] = meta
	}
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payloads)
}

// Get returns a stored payload, for test assertions.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payloads[key]
	return p, ok
}

// -----------------------------------------------------------------------------
// Source port
// -----------------------------------------------------------------------------

type SourceRepo struct {
	store *Store
}

func NewSource(store *Store) *SourceRepo {
	return &SourceRepo{store: store}
}

func (r *SourceRepo) ListKeys(ctx context.Context) ([]storage.KeyInfo, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	infos := make([]storage.KeyInfo, 0, len(r.store.payloads))
	for key, payload := range r.store.payloads {
		infos = append(infos, storage.KeyInfo{
			Key:       key,
			SizeBytes: int64(len(payload)),
			Metadata:  r.store.meta[key],
		})
	}
	// Map iteration order is random; keep enumeration deterministic.
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (r *SourceRepo) Read(ctx context.Context, key string) ([]byte, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	payload, ok := r.store.payloads[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return payload, nil
}

// -----------------------------------------------------------------------------
// Destination port
// -----------------------------------------------------------------------------

type DestinationRepo struct {
	store       *Store
	mu          sync.Mutex
	initialized bool
}

func NewDestination(store *Store) *DestinationRepo {
	return &DestinationRepo{store: store}
}

func (r *DestinationRepo) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initialized = true
	return nil
}

func (r *DestinationRepo) Write(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	initialized := r.initialized
	r.mu.Unlock()
	if !initialized {
		return storage.ErrNotInitialized
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.payloads[key] = value
	return nil
}

func (r *DestinationRepo) Close() error { return nil }
