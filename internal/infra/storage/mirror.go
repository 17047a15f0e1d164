package storage

import (
	"context"
	"log/slog"
)

// Mirror is a Destination that writes to a primary backend and best-effort
// replays every write to a secondary sync target. Sync failures are reported
// through OnSyncError (or logged) and never fail the write: the remote
// synchronization service is optional by contract.
type Mirror struct {
	Primary Destination
	Sync    Destination

	// OnSyncError receives sync-target failures. Optional.
	OnSyncError func(key string, err error)
}

func (m *Mirror) Initialize(ctx context.Context) error {
	if err := m.Primary.Initialize(ctx); err != nil {
		return err
	}
	if err := m.Sync.Initialize(ctx); err != nil {
		// Primary is the store of record; a dead sync target degrades
		// to local-only migration.
		m.reportSyncError("", err)
	}
	return nil
}

func (m *Mirror) Write(ctx context.Context, key string, value []byte) error {
	if err := m.Primary.Write(ctx, key, value); err != nil {
		return err
	}
	if err := m.Sync.Write(ctx, key, value); err != nil {
		m.reportSyncError(key, err)
	}
	return nil
}

func (m *Mirror) Close() error {
	syncErr := m.Sync.Close()
	if err := m.Primary.Close(); err != nil {
		return err
	}
	return syncErr
}

func (m *Mirror) reportSyncError(key string, err error) {
	if m.OnSyncError != nil {
		m.OnSyncError(key, err)
		return
	}
	slog.Warn("Sync target write failed", "key", key, "error", err)
}
