// Package retry decides whether a failed backend call is worth retrying
// and drives the backoff loop around per-item writes and backend
// initialization.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/coachbook/mover/internal/infra/storage"
)

// Config defines retry behavior.
type Config struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
	}
}

// Decision records why an error was or was not classified transient.
// Derived per error instance, never stored.
type Decision struct {
	IsTransient    bool
	MatchedPattern string
}

// transientStatusCodes is the fixed set of HTTP-ish status codes worth
// retrying. Matching on the structured code is independent of the message.
var transientStatusCodes = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// transientSubstrings is matched against the lower-cased error message.
// Bare numeric strings ("503") are deliberately absent: only the structured
// status-code path may match on the number itself, otherwise any message
// that happens to contain the digits would be misclassified.
var transientSubstrings = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection reset",
	"connection refused",
	"connection closed",
	"broken pipe",
	"network is unreachable",
	"network error",
	"no such host",
	"service unavailable",
	"temporarily unavailable",
	"too many requests",
	"rate limit",
	"server overloaded",
	"unexpected eof",
	"request aborted",
	"operation was aborted",
	"load failed",
}

// Classify triages an error into retry-vs-abort. Either a structured status
// code (storage.BackendError or a gRPC status) or a message-substring match
// is sufficient.
func Classify(err error) Decision {
	if err == nil {
		return Decision{}
	}

	if code, ok := storage.Code(err); ok {
		if transientStatusCodes[code] {
			return Decision{IsTransient: true, MatchedPattern: fmt.Sprintf("status %d", code)}
		}
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted:
			return Decision{IsTransient: true, MatchedPattern: fmt.Sprintf("grpc %s", s.Code())}
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientSubstrings {
		if strings.Contains(msg, pattern) {
			return Decision{IsTransient: true, MatchedPattern: pattern}
		}
	}

	return Decision{}
}

// IsTransient reports whether retrying err is likely to succeed.
func IsTransient(err error) bool {
	return Classify(err).IsTransient
}

// NextDelay returns base·2^attempt clamped to cap. Callers are expected to
// add jitter before sleeping; Do does.
func NextDelay(attempt int, base, cap time.Duration) time.Duration {
	d := float64(base) * math.Pow(2, float64(attempt))
	if d > float64(cap) {
		d = float64(cap)
	}
	return time.Duration(d)
}

// jitter spreads a delay uniformly over [0.75d, 1.25d) so synchronized
// retries do not hammer a struggling backend in lockstep.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	spread := float64(d) * (0.75 + 0.5*rand.Float64())
	return time.Duration(spread)
}

// Do runs op with exponential backoff. Non-transient errors surface
// immediately; transient errors are retried up to cfg.MaxAttempts with
// jittered, context-aware sleeps in between.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			return err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := jitter(NextDelay(attempt, cfg.InitialDelay, cfg.MaxDelay))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
