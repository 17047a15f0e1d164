package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coachbook/mover/internal/core/domain"
	"github.com/coachbook/mover/internal/migration/metrics"
	"github.com/coachbook/mover/internal/migration/priority"
	"github.com/coachbook/mover/internal/migration/retry"
)

// Run executes a migration run through the critical and important phases.
// Background items stay queued afterwards; the host's idle scheduler drains
// them with ProcessBackgroundBatch, and the run reaches Completed once the
// queue is empty. When no background items exist, Run completes the run
// itself.
//
// A second Run against an in-progress orchestrator waits for the active run
// when WaitIfRunning is set, and fails with ErrAlreadyRunning otherwise.
// Re-entrant starts re-run classification from scratch: new records may
// have appeared.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.begin(ctx); err != nil {
		return err
	}

	if err := o.classify(ctx); err != nil {
		return o.abort(err)
	}
	if err := o.initialize(ctx); err != nil {
		return o.abort(err)
	}

	o.setState(StateMigratingCritical)
	if err := o.migrate(ctx, o.takeCritical()); err != nil {
		return o.abort(err)
	}

	o.setState(StateMigratingImportant)
	if err := o.migrate(ctx, o.takeImportant()); err != nil {
		return o.abort(err)
	}

	o.mu.Lock()
	if len(o.background) == 0 {
		o.completeLocked()
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	o.setState(StateMigratingBackground)
	o.log.Info("Critical and important phases complete, background items queued",
		"run_id", o.RunID(), "queued", o.BacklogSize())
	return nil
}

// begin claims the orchestrator for a new run, resetting per-run state.
func (o *Orchestrator) begin(ctx context.Context) error {
	for {
		o.mu.Lock()
		if o.state.terminal() {
			break
		}
		done := o.runDone
		o.mu.Unlock()

		if !o.cfg.WaitIfRunning {
			return ErrAlreadyRunning
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	o.runID = uuid.NewString()
	o.critical = nil
	o.important = nil
	o.background = nil
	o.processed = 0
	o.skipped = 0
	o.total = 0
	o.warnings = nil
	o.workTotal = 0
	o.startedAt = time.Now()
	o.runDone = make(chan struct{})
	o.stateLocked(StateClassifying)
	o.mu.Unlock()

	o.log.Info("Migration run started", "run_id", o.RunID())
	return nil
}

// classify enumerates the source and produces the ordered plan.
func (o *Orchestrator) classify(ctx context.Context) error {
	infos, err := o.src.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate source keys: %w", err)
	}

	descs := make([]domain.ItemDescriptor, 0, len(infos))
	for _, info := range infos {
		descs = append(descs, domain.ItemDescriptor{
			Key:           info.Key,
			EstimatedSize: info.SizeBytes,
			Metadata:      info.Metadata,
		})
	}

	o.mu.Lock()
	plan := priority.ClassifyAndSort(descs, o.cfg.Priority, time.Now())
	for _, c := range plan {
		switch c.Tier {
		case domain.TierCritical:
			o.critical = append(o.critical, c)
		case domain.TierImportant:
			o.important = append(o.important, c)
		default:
			o.background = append(o.background, c)
		}
	}
	o.total = len(plan)
	nCrit, nImp, nBg := len(o.critical), len(o.important), len(o.background)
	o.mu.Unlock()

	metrics.ItemsQueued.WithLabelValues(domain.TierCritical.String()).Set(float64(nCrit))
	metrics.ItemsQueued.WithLabelValues(domain.TierImportant.String()).Set(float64(nImp))
	metrics.ItemsQueued.WithLabelValues(domain.TierBackground.String()).Set(float64(nBg))

	o.log.Info("Classification complete",
		"run_id", o.RunID(),
		"total", nCrit+nImp+nBg,
		"critical", nCrit,
		"important", nImp,
		"background", nBg)
	return nil
}

// initialize opens the destination backend under the mutex guard, retrying
// transient failures up to the configured cap. Guard timeout or retry
// exhaustion aborts the run.
func (o *Orchestrator) initialize(ctx context.Context) error {
	o.setState(StateInitializing)

	if err := o.guard.Acquire(ctx); err != nil {
		return fmt.Errorf("failed to enter initialization critical section: %w", err)
	}
	defer o.guard.Release()
	metrics.MutexQueueLength.Set(float64(o.guard.QueueLength()))

	err := retry.Do(ctx, o.cfg.Retry, func(ctx context.Context) error {
		metrics.RetryAttempts.WithLabelValues("initialize").Inc()
		return o.dst.Initialize(ctx)
	})
	if err != nil {
		return fmt.Errorf("backend initialization failed: %w", err)
	}
	return nil
}

func (o *Orchestrator) takeCritical() []domain.Classification {
	o.mu.Lock()
	defer o.mu.Unlock()
	items := o.critical
	o.critical = nil
	return items
}

func (o *Orchestrator) takeImportant() []domain.Classification {
	o.mu.Lock()
	defer o.mu.Unlock()
	items := o.important
	o.important = nil
	return items
}

// migrate processes items in plan order. The context is consulted between
// items only; an in-flight write completes or fails before cancellation
// takes effect.
func (o *Orchestrator) migrate(ctx context.Context, items []domain.Classification) error {
	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		o.processItem(ctx, item)
	}
	return nil
}

// processItem reads one record from the source and writes it to the
// destination with per-item retry. Permanent failure (or retry exhaustion)
// is recorded as a warning and the item skipped; it never aborts the run.
func (o *Orchestrator) processItem(ctx context.Context, item domain.Classification) {
	start := time.Now()

	err := func() error {
		data, err := o.src.Read(ctx, item.Key)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		return retry.Do(ctx, o.cfg.Retry, func(ctx context.Context) error {
			metrics.RetryAttempts.WithLabelValues("write").Inc()
			return o.dst.Write(ctx, item.Key, data)
		})
	}()
	elapsed := time.Since(start)

	o.mu.Lock()
	o.processed++
	if err != nil {
		o.skipped++
		o.warnings = append(o.warnings, fmt.Sprintf("failed to migrate %q: %v", item.Key, err))
		metrics.ItemsMigrated.WithLabelValues(item.Tier.String(), "failed").Inc()
		metrics.Warnings.Inc()
		o.log.Warn("Item migration failed, skipping",
			"run_id", o.runID, "key", item.Key, "tier", item.Tier.String(), "error", err)
	} else {
		o.workTotal += elapsed
		metrics.ItemsMigrated.WithLabelValues(item.Tier.String(), "ok").Inc()
		metrics.ItemDuration.WithLabelValues(item.Tier.String()).Observe(elapsed.Seconds())
	}
	progress := o.progressLocked(fmt.Sprintf("%s: %s", o.state, item.Key))
	o.mu.Unlock()

	o.emitProgress(progress)
}

// ProcessBackgroundBatch migrates up to max queued background items. The
// host's idle scheduler calls this when it has spare capacity; this
// subsystem invents no idle detection of its own. Returns the number of
// items still queued. When the queue drains, the run reaches Completed.
func (o *Orchestrator) ProcessBackgroundBatch(ctx context.Context, max int) (int, error) {
	o.mu.Lock()
	if o.state != StateMigratingBackground {
		remaining := len(o.background)
		o.mu.Unlock()
		return remaining, nil
	}
	if max <= 0 {
		max = o.cfg.BackgroundBatchSize
	}
	o.mu.Unlock()

	for i := 0; i < max; i++ {
		select {
		case <-ctx.Done():
			return o.BacklogSize(), ctx.Err()
		default:
		}

		o.mu.Lock()
		if len(o.background) == 0 {
			o.mu.Unlock()
			break
		}
		item := o.background[0]
		o.background = o.background[1:]
		o.mu.Unlock()

		o.processItem(ctx, item)
	}

	o.mu.Lock()
	remaining := len(o.background)
	metrics.ItemsQueued.WithLabelValues(domain.TierBackground.String()).Set(float64(remaining))
	if remaining == 0 && o.state == StateMigratingBackground {
		o.completeLocked()
	}
	o.mu.Unlock()
	return remaining, nil
}

// setState transitions phases and records the state gauge.
func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.stateLocked(s)
	o.mu.Unlock()
}

func (o *Orchestrator) stateLocked(s State) {
	o.state = s
	metrics.RunState.Set(float64(s))
	o.log.Debug("Migration state changed", "run_id", o.runID, "state", s.String())
}

// progressLocked builds a snapshot; callers hold o.mu. The time estimate is
// a moving average of successful per-item durations so far.
func (o *Orchestrator) progressLocked(step string) domain.Progress {
	p := domain.Progress{
		RunID:          o.runID,
		ProcessedCount: o.processed,
		TotalCount:     o.total,
		CurrentStep:    step,
	}
	if o.total > 0 {
		p.Percentage = o.processed * 100 / o.total
	}
	if succeeded := o.processed - o.skipped; succeeded > 0 && o.processed < o.total {
		avg := o.workTotal / time.Duration(succeeded)
		p.EstimatedRemaining = avg * time.Duration(o.total-o.processed)
		p.HasEstimate = true
	}
	return p
}

func (o *Orchestrator) emitProgress(p domain.Progress) {
	if o.onProgress != nil {
		o.onProgress(p)
	}
}

// completeLocked transitions to Completed and emits the final summary.
// Callers hold o.mu.
func (o *Orchestrator) completeLocked() {
	o.stateLocked(StateCompleted)
	summary := o.summaryLocked(true)
	close(o.runDone)
	o.log.Info("Migration run completed",
		"run_id", o.runID,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"warnings", len(summary.Warnings),
		"duration", summary.Duration)
	if o.onComplete != nil {
		go o.onComplete(summary)
	}
}

// abort moves the run to the terminal Aborted state. Only backend
// initialization failure, guard timeout/queue-full, or cancellation land
// here; per-item failures are warnings.
func (o *Orchestrator) abort(err error) error {
	o.mu.Lock()
	o.stateLocked(StateAborted)
	o.warnings = append(o.warnings, fmt.Sprintf("migration aborted: %v", err))
	summary := o.summaryLocked(false)
	close(o.runDone)
	o.mu.Unlock()

	o.log.Error("Migration run aborted", "run_id", summary.RunID, "error", err)
	if o.onComplete != nil {
		go o.onComplete(summary)
	}
	return err
}

func (o *Orchestrator) summaryLocked(success bool) domain.Summary {
	warnings := make([]string, len(o.warnings))
	copy(warnings, o.warnings)
	return domain.Summary{
		RunID:     o.runID,
		Success:   success,
		Warnings:  warnings,
		Processed: o.processed,
		Skipped:   o.skipped,
		Duration:  time.Since(o.startedAt),
	}
}
