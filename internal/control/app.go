// Package control wires the migration subsystem together: storage backend
// selection, the orchestrator, the idle scheduler that drains background
// items, and the health server.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coachbook/mover/internal/core/config"
	"github.com/coachbook/mover/internal/core/domain"
	"github.com/coachbook/mover/internal/infra/storage"
	"github.com/coachbook/mover/internal/infra/storage/badgerstore"
	"github.com/coachbook/mover/internal/infra/storage/memory"
	"github.com/coachbook/mover/internal/infra/storage/postgres"
	"github.com/coachbook/mover/internal/infra/storage/redisstore"
	"github.com/coachbook/mover/internal/migration/health"
	"github.com/coachbook/mover/internal/migration/orchestrator"
)

// Config holds the application configuration.
type Config struct {
	Port        int
	Source      config.SourceConfig
	Destination config.DestinationConfig
	Sync        config.SyncConfig
	Migration   config.MigrationConfig

	Orchestrator orchestrator.Config
}

// FromApp translates the loaded file configuration into the control
// config.
func FromApp(cfg *config.AppConfig) Config {
	return Config{
		Port:        cfg.Server.Port,
		Source:      cfg.Source,
		Destination: cfg.Destination,
		Sync:        cfg.Sync,
		Migration:   cfg.Migration,
		Orchestrator: orchestrator.Config{
			Priority:            cfg.Priority,
			Retry:               cfg.Retry,
			Mutex:               cfg.Mutex,
			WaitIfRunning:       cfg.Migration.WaitIfRunning,
			BackgroundBatchSize: cfg.Migration.BackgroundBatchSize,
		},
	}
}

// App is the main application struct that manages the migration lifecycle.
type App struct {
	cfg          Config
	orch         *orchestrator.Orchestrator
	healthServer *health.Server
	src          storage.Source
	dst          storage.Destination
	log          *slog.Logger

	srcCloser func() error

	mu         sync.Mutex
	idleCancel context.CancelFunc
	wg         sync.WaitGroup
}

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg Config) (*App, error) {
	app := &App{cfg: cfg, log: slog.Default()}

	// 1. Source backend
	if cfg.Source.Redis.URL != "" {
		src, err := redisstore.NewStore(cfg.Source.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init legacy source: %w", err)
		}
		app.src = src
		app.srcCloser = src.Close
		slog.Info("Using Redis legacy source", "namespace", cfg.Source.Redis.Namespace)
	} else {
		store := memory.NewStore()
		app.src = memory.NewSource(store)
		slog.Info("Using memory source")
	}

	// 2. Destination backend
	var dst storage.Destination
	if cfg.Destination.Badger.Path != "" || cfg.Destination.Badger.InMemory {
		dst = badgerstore.NewStore(cfg.Destination.Badger)
		slog.Info("Using Badger destination", "path", cfg.Destination.Badger.Path)
	} else {
		store := memory.NewStore()
		dst = memory.NewDestination(store)
		slog.Info("Using memory destination")
	}

	// 3. Optional remote sync target, mirrored best-effort
	if cfg.Sync.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Sync.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init sync target: %w", err)
		}
		dst = &storage.Mirror{Primary: dst, Sync: postgres.NewSyncStore(db)}
		slog.Info("Remote sync enabled")
	}
	app.dst = dst

	// 4. Orchestrator and observers
	app.orch = orchestrator.New(cfg.Orchestrator, app.src, dst,
		orchestrator.WithProgressObserver(func(p domain.Progress) {
			slog.Debug("Migration progress",
				"run_id", p.RunID,
				"percent", p.Percentage,
				"processed", p.ProcessedCount,
				"total", p.TotalCount,
				"step", p.CurrentStep)
		}),
		orchestrator.WithCompletionObserver(func(s domain.Summary) {
			if s.Success {
				slog.Info("Migration finished",
					"run_id", s.RunID,
					"processed", s.Processed,
					"skipped", s.Skipped,
					"warnings", len(s.Warnings),
					"duration", s.Duration)
			} else {
				slog.Error("Migration aborted",
					"run_id", s.RunID,
					"warnings", s.Warnings)
			}
		}),
	)

	app.healthServer = health.NewServer(app.orch, cfg.Port)
	return app, nil
}

// Orchestrator exposes the orchestrator, e.g. for embedding hosts that
// drive idle processing themselves.
func (a *App) Orchestrator() *orchestrator.Orchestrator { return a.orch }

// Start launches the health server, kicks off the migration run, and
// starts the idle loop that drains background items.
func (a *App) Start(ctx context.Context) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	idleCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.idleCancel = cancel
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.orch.Run(idleCtx); err != nil {
			a.log.Error("Migration run failed", "error", err)
			return
		}
		a.idleLoop(idleCtx)
	}()

	return nil
}

// idleLoop is the host-side idle scheduler: a ticker stands in for the
// application's spare capacity signal and releases one background batch
// per tick.
func (a *App) idleLoop(ctx context.Context) {
	interval := a.cfg.Migration.IdleInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining, err := a.orch.ProcessBackgroundBatch(ctx, a.cfg.Migration.BackgroundBatchSize)
			if err != nil {
				a.log.Warn("Background batch interrupted", "error", err)
				return
			}
			if remaining == 0 {
				return
			}
		}
	}
}

// Stop gracefully shuts the application down.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.idleCancel != nil {
		a.idleCancel()
	}
	a.mu.Unlock()

	if err := a.healthServer.Stop(ctx); err != nil {
		a.log.Warn("Health server shutdown failed", "error", err)
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := a.dst.Close(); err != nil {
		return fmt.Errorf("failed to close destination: %w", err)
	}
	if a.srcCloser != nil {
		if err := a.srcCloser(); err != nil {
			return fmt.Errorf("failed to close source: %w", err)
		}
	}
	return nil
}
