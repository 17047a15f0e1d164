// Package orchestrator drives the end-to-end migration run: classify every
// record, initialize the destination under the mutex guard, migrate tier by
// tier with per-item retry, and emit progress after every item.
//
// One logical worker processes items; concurrency exists only between the
// active run and other callers contending for the guard. Cancellation is
// checked between items, never mid-write, so a record is never left
// half-written.
package orchestrator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/coachbook/mover/internal/core/domain"
	"github.com/coachbook/mover/internal/infra/storage"
	"github.com/coachbook/mover/internal/migration/mutexguard"
	"github.com/coachbook/mover/internal/migration/priority"
	"github.com/coachbook/mover/internal/migration/retry"
)

// Config holds everything the host supplies at construction time. No
// environment coupling here.
type Config struct {
	Priority priority.Config   `yaml:"priority"`
	Retry    retry.Config      `yaml:"retry"`
	Mutex    mutexguard.Config `yaml:"mutex"`

	// WaitIfRunning makes a racing start request wait for the active run
	// instead of failing with ErrAlreadyRunning.
	WaitIfRunning bool `yaml:"wait_if_running"`

	// BackgroundBatchSize bounds one ProcessBackgroundBatch call when the
	// caller passes no explicit limit.
	BackgroundBatchSize int `yaml:"background_batch_size"`
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithProgressObserver registers the callback receiving a Progress snapshot
// after every processed item.
func WithProgressObserver(fn func(domain.Progress)) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// WithCompletionObserver registers the callback receiving the final Summary
// when a run reaches Completed or Aborted.
func WithCompletionObserver(fn func(domain.Summary)) Option {
	return func(o *Orchestrator) { o.onComplete = fn }
}

// WithLogger overrides the default slog logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// Orchestrator coordinates one migration run at a time.
type Orchestrator struct {
	cfg   Config
	src   storage.Source
	dst   storage.Destination
	guard *mutexguard.Guard
	log   *slog.Logger

	onProgress func(domain.Progress)
	onComplete func(domain.Summary)

	mu         sync.Mutex
	state      State
	runID      string
	critical   []domain.Classification
	important  []domain.Classification
	background []domain.Classification
	processed  int
	skipped    int
	total      int
	warnings   []string
	startedAt  time.Time
	workTotal  time.Duration
	runDone    chan struct{}
}

// New builds an Orchestrator. The mutex guard is constructed here and owned
// by the orchestrator; collaborators needing the critical section get it
// via Guard() instead of a package-level singleton.
func New(cfg Config, src storage.Source, dst storage.Destination, opts ...Option) *Orchestrator {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	if cfg.BackgroundBatchSize <= 0 {
		cfg.BackgroundBatchSize = 25
	}
	o := &Orchestrator{
		cfg:   cfg,
		src:   src,
		dst:   dst,
		guard: mutexguard.New(cfg.Mutex),
		log:   slog.Default(),
		state: StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Guard exposes the initialization critical section to collaborators.
func (o *Orchestrator) Guard() *mutexguard.Guard { return o.guard }

// State returns the current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// RunID returns the identifier of the current (or last) run.
func (o *Orchestrator) RunID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.runID
}

// Warnings returns a copy of the warnings recorded so far this run.
func (o *Orchestrator) Warnings() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.warnings))
	copy(out, o.warnings)
	return out
}

// Progress returns the current progress snapshot.
func (o *Orchestrator) Progress() domain.Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progressLocked(o.state.String())
}

// BacklogSize returns the number of background items still queued.
func (o *Orchestrator) BacklogSize() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.background)
}

// SetActiveRecord updates the priority configuration when the host
// application changes the currently open record. Takes effect on the next
// classification pass; an in-flight plan is not re-sorted.
func (o *Orchestrator) SetActiveRecord(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg.Priority.ActiveRecordID = id
}
