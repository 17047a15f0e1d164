package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/coachbook/mover/internal/infra/storage"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"status 429", &storage.BackendError{Op: "write", StatusCode: 429, Err: errors.New("slow down")}, true},
		{"status 503", &storage.BackendError{Op: "init", StatusCode: 503, Err: errors.New("unavailable")}, true},
		{"status 404", &storage.BackendError{Op: "read", StatusCode: 404, Err: errors.New("missing")}, false},
		{"status 400", &storage.BackendError{Op: "write", StatusCode: 400, Err: errors.New("bad payload")}, false},
		{"timeout message", errors.New("operation timeout"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"service unavailable", errors.New("Service Unavailable"), true},
		{"too many requests", errors.New("429 Too Many Requests"), true},
		{"request aborted", errors.New("request aborted by client"), true},
		{"validation error", errors.New("record payload failed validation"), false},
		{"grpc unavailable", status.Error(codes.Unavailable, "server down"), true},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "quota"), true},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// A message containing the literal digits "503" with no structured status
// code must NOT be classified transient; only the structured path matches
// on the number itself.
func TestBareNumericMessageNotTransient(t *testing.T) {
	err := errors.New("record id 503 has malformed payload")
	if IsTransient(err) {
		t.Errorf("bare numeric message misclassified as transient: %v", err)
	}
}

func TestClassifyReportsPattern(t *testing.T) {
	d := Classify(&storage.BackendError{Op: "write", StatusCode: 503, Err: errors.New("down")})
	if !d.IsTransient || d.MatchedPattern != "status 503" {
		t.Errorf("unexpected decision %+v", d)
	}

	d = Classify(errors.New("dial tcp: connection refused"))
	if !d.IsTransient || d.MatchedPattern != "connection refused" {
		t.Errorf("unexpected decision %+v", d)
	}
}

func TestNextDelay(t *testing.T) {
	base := 100 * time.Millisecond
	maxDelay := time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second}, // clamped
		{10, time.Second},
	}
	for _, tt := range tests {
		if got := NextDelay(tt.attempt, base, maxDelay); got != tt.want {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

// Do adds uniform jitter in [0.75d, 1.25d) before each sleep; verify the
// jitter helper stays within that envelope.
func TestJitterBounds(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		j := jitter(d)
		if j < 75*time.Millisecond || j >= 125*time.Millisecond {
			t.Fatalf("jitter(%v) = %v outside [75ms, 125ms)", d, j)
		}
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}

	calls := 0
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &storage.BackendError{Op: "init", StatusCode: 503, Err: errors.New("warming up")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}

	permanent := errors.New("payload rejected")
	calls := 0
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("permanent error retried %d times", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}

	transient := &storage.BackendError{Op: "write", StatusCode: 502, Err: errors.New("bad gateway")}
	calls := 0
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return transient
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, transient) {
		t.Errorf("final error does not wrap last failure: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestDoRespectsContext(t *testing.T) {
	cfg := Config{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, cfg, func(ctx context.Context) error {
		calls++
		return errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls == 0 {
		t.Error("op never ran")
	}
}
