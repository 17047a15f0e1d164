package orchestrator

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/coachbook/mover/internal/core/domain"
	"github.com/coachbook/mover/internal/infra/storage/memory"
)

// End-to-end over the real in-memory port implementations: every seeded
// record arrives in the destination unchanged.
func TestRunAgainstMemoryBackends(t *testing.T) {
	srcStore := memory.NewStore()
	now := time.Now()
	srcStore.Seed("app_settings", []byte("settings-payload"), nil)
	srcStore.Seed("team_roster", []byte("roster-payload"), nil)
	srcStore.Seed("saved_game_1", bytes.Repeat([]byte("g"), 20<<10),
		&domain.ItemMetadata{LastModifiedAt: &now})
	srcStore.Seed("tournament_2020", bytes.Repeat([]byte("t"), 200<<10), nil)

	dstStore := memory.NewStore()

	o := New(fastConfig(), memory.NewSource(srcStore), memory.NewDestination(dstStore))
	ctx := context.Background()
	if err := o.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for o.State() == StateMigratingBackground {
		if _, err := o.ProcessBackgroundBatch(ctx, 10); err != nil {
			t.Fatalf("background drain failed: %v", err)
		}
	}

	if got := o.State(); got != StateCompleted {
		t.Fatalf("expected completed, got %v", got)
	}
	if dstStore.Len() != srcStore.Len() {
		t.Fatalf("destination has %d records, source has %d", dstStore.Len(), srcStore.Len())
	}
	for _, key := range []string{"app_settings", "team_roster", "saved_game_1", "tournament_2020"} {
		got, ok := dstStore.Get(key)
		if !ok {
			t.Errorf("key %q missing from destination", key)
			continue
		}
		want, _ := srcStore.Get(key)
		if !bytes.Equal(got, want) {
			t.Errorf("payload mismatch for %q", key)
		}
	}
	if warnings := o.Warnings(); len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}
