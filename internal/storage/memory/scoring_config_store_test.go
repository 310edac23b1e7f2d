package memory

import (
	"context"
	"errors"
	"testing"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

func TestScoringConfigStore_GetEmpty(t *testing.T) {
	store := NewScoringConfigStore()

	_, err := store.Get(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestScoringConfigStore_PutAndGet(t *testing.T) {
	store := NewScoringConfigStore()
	ctx := context.Background()

	cfg := domain.DefaultScoringConfig()
	cfg.MinActiveLiquidity = 2500
	if err := store.Put(ctx, cfg); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != cfg {
		t.Errorf("Config mismatch: got %+v", got)
	}
}

func TestScoringConfigStore_PutRejectsInvalid(t *testing.T) {
	store := NewScoringConfigStore()
	ctx := context.Background()

	valid := domain.DefaultScoringConfig()
	if err := store.Put(ctx, valid); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	invalid := valid
	invalid.Alpha = 0
	if err := store.Put(ctx, invalid); !errors.Is(err, domain.ErrConfigInvalid) {
		t.Fatalf("Expected ErrConfigInvalid, got %v", err)
	}

	// Prior config stays in effect
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != valid {
		t.Errorf("Prior config lost: got %+v", got)
	}
}

func TestScoringConfigStore_LastWriteWins(t *testing.T) {
	store := NewScoringConfigStore()
	ctx := context.Background()

	first := domain.DefaultScoringConfig()
	second := first
	second.ExportTopN = 25

	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, second); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, _ := store.Get(ctx)
	if got.ExportTopN != 25 {
		t.Errorf("ExportTopN: got %d, want 25", got.ExportTopN)
	}
}
