package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsMigrated tracks processed items by tier and outcome.
	ItemsMigrated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mover_items_migrated_total",
			Help: "Total number of items processed by the migration run",
		},
		[]string{"tier", "status"},
	)

	// ItemDuration tracks per-item migration latency.
	ItemDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mover_item_duration_seconds",
			Help:    "Per-item migration duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tier"},
	)

	// ItemsQueued tracks items awaiting migration by tier.
	ItemsQueued = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mover_items_queued",
			Help: "Items awaiting migration",
		},
		[]string{"tier"},
	)

	// RunState exposes the orchestrator state as a numeric gauge.
	RunState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mover_run_state",
			Help: "Current orchestrator state (0=idle through 7=aborted)",
		},
	)

	// MutexQueueLength tracks waiters suspended on the init guard.
	MutexQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mover_mutex_queue_length",
			Help: "Waiters queued on the initialization guard",
		},
	)

	// RetryAttempts tracks retried operations by kind.
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mover_retry_attempts_total",
			Help: "Total retry attempts by operation",
		},
		[]string{"operation"},
	)

	// Warnings tracks non-fatal per-item failures recorded during a run.
	Warnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mover_warnings_total",
			Help: "Non-fatal failures recorded as warnings",
		},
	)
)
