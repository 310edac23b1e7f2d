package memory

import (
	"context"
	"errors"
	"testing"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

func TestTransitionStore_InsertAndList(t *testing.T) {
	store := NewTransitionStore()
	ctx := context.Background()

	transitions := []*domain.StatusTransition{
		{TokenAddress: "Mint1", FromStatus: domain.StatusActive, ToStatus: domain.StatusInitial, TimestampMs: 2000, Reason: domain.ReasonLowScore},
		{TokenAddress: "Mint1", FromStatus: domain.StatusInitial, ToStatus: domain.StatusActive, TimestampMs: 1000, Reason: domain.ReasonActivationThresholdMet},
		{TokenAddress: "Mint2", FromStatus: domain.StatusInitial, ToStatus: domain.StatusArchived, TimestampMs: 1500, Reason: domain.ReasonInitialTimeout},
	}
	for _, tr := range transitions {
		if err := store.Insert(ctx, tr); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.ListByToken(ctx, "Mint1")
	if err != nil {
		t.Fatalf("ListByToken failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 transitions, got %d", len(got))
	}
	if got[0].TimestampMs != 1000 || got[1].TimestampMs != 2000 {
		t.Errorf("Wrong order: %d, %d", got[0].TimestampMs, got[1].TimestampMs)
	}
	if got[0].Reason != domain.ReasonActivationThresholdMet {
		t.Errorf("Reason: got %s", got[0].Reason)
	}
}

func TestTransitionStore_SameTimestampKeepsInsertOrder(t *testing.T) {
	store := NewTransitionStore()
	ctx := context.Background()

	first := &domain.StatusTransition{TokenAddress: "Mint1", FromStatus: domain.StatusInitial, ToStatus: domain.StatusActive, TimestampMs: 1000, Reason: domain.ReasonActivationThresholdMet}
	second := &domain.StatusTransition{TokenAddress: "Mint1", FromStatus: domain.StatusActive, ToStatus: domain.StatusInitial, TimestampMs: 1000, Reason: domain.ReasonLowActivity}
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, second); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, _ := store.ListByToken(ctx, "Mint1")
	if len(got) != 2 || got[0].Reason != domain.ReasonActivationThresholdMet {
		t.Errorf("Insert order not preserved: %v", got)
	}
}

func TestTransitionStore_InvalidInput(t *testing.T) {
	store := NewTransitionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.StatusTransition{TokenAddress: ""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty address, got %v", err)
	}
}

func TestTransitionStore_ListEmpty(t *testing.T) {
	store := NewTransitionStore()

	got, err := store.ListByToken(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("ListByToken failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no transitions, got %d", len(got))
	}
}
