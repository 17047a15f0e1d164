package memory

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/coachbook/mover/internal/core/domain"
	"github.com/coachbook/mover/internal/infra/storage"
)

func TestSourceListAndRead(t *testing.T) {
	store := NewStore()
	store.Seed("app_settings", []byte("s"), nil)
	store.Seed("saved_game_1", []byte("longer payload"), &domain.ItemMetadata{IsActive: true})

	src := NewSource(store)
	ctx := context.Background()

	infos, err := src.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(infos))
	}
	// Enumeration is sorted for determinism.
	if infos[0].Key != "app_settings" || infos[1].Key != "saved_game_1" {
		t.Errorf("unexpected enumeration order: %v", infos)
	}
	if infos[1].SizeBytes != int64(len("longer payload")) {
		t.Errorf("size = %d, want payload length", infos[1].SizeBytes)
	}
	if infos[1].Metadata == nil || !infos[1].Metadata.IsActive {
		t.Error("metadata not preserved")
	}

	data, err := src.Read(ctx, "app_settings")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(data, []byte("s")) {
		t.Errorf("Read = %q", data)
	}

	if _, err := src.Read(ctx, "missing"); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestDestinationRequiresInitialize(t *testing.T) {
	store := NewStore()
	dst := NewDestination(store)
	ctx := context.Background()

	if err := dst.Write(ctx, "k", []byte("v")); !errors.Is(err, storage.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}

	if err := dst.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := dst.Write(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := dst.Write(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, ok := store.Get("k")
	if !ok || string(got) != "v2" {
		t.Errorf("stored value = %q, want v2", got)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 record after overwrite, got %d", store.Len())
	}
}
