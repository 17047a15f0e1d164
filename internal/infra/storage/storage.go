package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/coachbook/mover/internal/core/domain"
)

var (
	// ErrKeyNotFound is returned when a record does not exist in a backend.
	ErrKeyNotFound = errors.New("key not found")

	// ErrNotInitialized is returned when a destination is used before Initialize.
	ErrNotInitialized = errors.New("destination not initialized")
)

// KeyInfo describes one stored record during enumeration.
type KeyInfo struct {
	Key       string
	SizeBytes int64
	Metadata  *domain.ItemMetadata
}

// Source is the legacy, size-constrained store records are migrated out of.
type Source interface {
	// ListKeys enumerates every migratable record with its size estimate
	// and optional metadata.
	ListKeys(ctx context.Context) ([]KeyInfo, error)

	// Read returns the raw payload for a key.
	Read(ctx context.Context, key string) ([]byte, error)
}

// Destination is the larger-capacity store records are migrated into.
// Write must be overwrite-safe: re-migrating a key replaces the previous
// payload with no duplicate side effects.
type Destination interface {
	// Initialize opens the backend. Must be idempotent; the orchestrator
	// guards it with a mutex but may call it again on a re-run.
	Initialize(ctx context.Context) error

	// Write stores the payload under key, replacing any previous value.
	Write(ctx context.Context, key string, value []byte) error

	// Close releases backend resources.
	Close() error
}

// BackendError wraps a backend failure with the structured status code the
// transient-failure classifier keys on. A zero StatusCode means the backend
// produced no structured code and only message matching applies.
type BackendError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Code extracts the structured status code from an error chain.
func Code(err error) (int, bool) {
	var be *BackendError
	if errors.As(err, &be) && be.StatusCode != 0 {
		return be.StatusCode, true
	}
	return 0, false
}
