// Package mutexguard provides the single-holder critical-section primitive
// that serializes destination-backend initialization.
//
// Waiters are suspended on per-waiter channels and granted strictly in
// arrival order. The queue is bounded: under a retry storm, callers beyond
// MaxQueue fail fast instead of piling up.
package mutexguard

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrTimeout is returned when a waiter's timeout elapses before the
	// guard is granted. Never retried internally; retry policy belongs to
	// the caller.
	ErrTimeout = errors.New("mutex acquire timed out")

	// ErrQueueFull is returned immediately when the wait queue is at
	// capacity.
	ErrQueueFull = errors.New("mutex wait queue full")

	// ErrForceReleased is delivered to every queued waiter when the guard
	// is force-released during shutdown or error recovery.
	ErrForceReleased = errors.New("mutex force released")
)

// Config controls wait behavior.
type Config struct {
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	MaxQueue       int           `yaml:"max_queue"`
}

// DefaultConfig returns the defaults used when the host supplies none.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout: 10 * time.Second,
		MaxQueue:       32,
	}
}

// Stats is a read-only snapshot for observability.
type Stats struct {
	Held           bool
	HolderDuration time.Duration
	QueueLength    int
	Acquired       uint64
	Timeouts       uint64
	ForceReleases  uint64
}

type waiter struct {
	ch      chan error
	granted bool
}

// Guard is the single-holder mutex. The zero value is not usable; construct
// with New. All methods are safe for concurrent use.
type Guard struct {
	cfg Config

	mu            sync.Mutex
	held          bool
	acquiredAt    time.Time
	queue         []*waiter
	acquired      uint64
	timeouts      uint64
	forceReleases uint64
}

// New creates a Guard. Zero config fields fall back to DefaultConfig.
func New(cfg Config) *Guard {
	def := DefaultConfig()
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = def.DefaultTimeout
	}
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = def.MaxQueue
	}
	return &Guard{cfg: cfg}
}

// Acquire acquires the guard with the configured default timeout.
func (g *Guard) Acquire(ctx context.Context) error {
	return g.AcquireTimeout(ctx, g.cfg.DefaultTimeout)
}

// AcquireTimeout acquires the guard, waiting at most timeout. When the guard
// is unheld it is granted immediately. Otherwise the caller joins the tail
// of a FIFO queue and suspends until granted, the timeout elapses
// (ErrTimeout), the context is cancelled, or the guard is force-released
// (ErrForceReleased). A full queue fails immediately with ErrQueueFull.
func (g *Guard) AcquireTimeout(ctx context.Context, timeout time.Duration) error {
	g.mu.Lock()
	if !g.held {
		g.held = true
		g.acquiredAt = time.Now()
		g.acquired++
		g.mu.Unlock()
		return nil
	}
	if len(g.queue) >= g.cfg.MaxQueue {
		g.mu.Unlock()
		return ErrQueueFull
	}
	w := &waiter{ch: make(chan error, 1)}
	g.queue = append(g.queue, w)
	g.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-w.ch:
		return err
	case <-timer.C:
		return g.abandon(w, ErrTimeout)
	case <-ctx.Done():
		return g.abandon(w, ctx.Err())
	}
}

// abandon removes w from the queue after a timeout or cancellation. A grant
// can race the timer: granting happens under g.mu, so if w was already
// granted the caller owns the guard and the acquire succeeds after all.
func (g *Guard) abandon(w *waiter, cause error) error {
	g.mu.Lock()
	if w.granted {
		g.mu.Unlock()
		return <-w.ch
	}
	for i, q := range g.queue {
		if q == w {
			g.queue = append(g.queue[:i], g.queue[i+1:]...)
			break
		}
	}
	if errors.Is(cause, ErrTimeout) {
		g.timeouts++
	}
	g.mu.Unlock()
	return cause
}

// Release hands the guard to the head waiter in FIFO order, or clears the
// holder when the queue is empty. Releasing an unheld guard is a no-op so
// defensive double-release in cleanup paths stays harmless.
func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.held {
		return
	}
	if len(g.queue) > 0 {
		w := g.queue[0]
		g.queue = g.queue[1:]
		w.granted = true
		g.acquiredAt = time.Now()
		g.acquired++
		w.ch <- nil
		return
	}
	g.held = false
}

// ForceRelease clears the holder and fails every queued waiter with
// ErrForceReleased. Reserved for shutdown and error-recovery paths.
func (g *Guard) ForceRelease() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, w := range g.queue {
		w.granted = true
		w.ch <- ErrForceReleased
	}
	g.queue = nil
	g.held = false
	g.forceReleases++
}

// IsLocked reports whether the guard is currently held.
func (g *Guard) IsLocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}

// QueueLength reports the number of suspended waiters.
func (g *Guard) QueueLength() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// Stats returns a snapshot of holder and queue state.
func (g *Guard) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Stats{
		Held:          g.held,
		QueueLength:   len(g.queue),
		Acquired:      g.acquired,
		Timeouts:      g.timeouts,
		ForceReleases: g.forceReleases,
	}
	if g.held {
		s.HolderDuration = time.Since(g.acquiredAt)
	}
	return s
}
