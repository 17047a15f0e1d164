package config

import (
	"time"

	"github.com/coachbook/mover/internal/infra/storage/badgerstore"
	"github.com/coachbook/mover/internal/infra/storage/postgres"
	"github.com/coachbook/mover/internal/infra/storage/redisstore"
	"github.com/coachbook/mover/internal/migration/mutexguard"
	"github.com/coachbook/mover/internal/migration/priority"
	"github.com/coachbook/mover/internal/migration/retry"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Source      SourceConfig      `yaml:"source"`
	Destination DestinationConfig `yaml:"destination"`
	Sync        SyncConfig        `yaml:"sync"`
	Priority    priority.Config   `yaml:"priority"`
	Mutex       mutexguard.Config `yaml:"mutex"`
	Retry       retry.Config      `yaml:"retry"`
	Migration   MigrationConfig   `yaml:"migration"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SourceConfig selects the legacy store records migrate out of. An empty
// Redis URL falls back to the in-memory source.
type SourceConfig struct {
	Redis redisstore.Config `yaml:"redis"`
}

// DestinationConfig selects the store records migrate into. An empty
// badger path (without in_memory) falls back to the in-memory destination.
type DestinationConfig struct {
	Badger badgerstore.Config `yaml:"badger"`
}

// SyncConfig holds the optional remote synchronization target. A non-empty
// database URL enables mirroring.
type SyncConfig struct {
	Database postgres.Config `yaml:"database"`
}

// MigrationConfig holds run-level settings.
type MigrationConfig struct {
	WaitIfRunning       bool          `yaml:"wait_if_running"`
	BackgroundBatchSize int           `yaml:"background_batch_size"`
	IdleInterval        time.Duration `yaml:"idle_interval"`
}
