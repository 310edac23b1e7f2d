package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

func TestTokenStore_InsertAndGet(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	tok := &domain.Token{
		Address:   "Mint1",
		Status:    domain.StatusInitial,
		CreatedAt: 1704067200000,
	}

	if err := store.Insert(ctx, tok); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByAddress(ctx, "Mint1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}

	if got.Address != tok.Address {
		t.Errorf("Address mismatch: got %s, want %s", got.Address, tok.Address)
	}
	if got.Status != domain.StatusInitial {
		t.Errorf("Status mismatch: got %s, want %s", got.Status, domain.StatusInitial)
	}

	// Mutating the returned copy must not affect the store
	got.Status = domain.StatusArchived
	again, _ := store.GetByAddress(ctx, "Mint1")
	if again.Status != domain.StatusInitial {
		t.Errorf("store mutated through returned copy")
	}
}

func TestTokenStore_DuplicateKey(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	tok := &domain.Token{Address: "Mint1", Status: domain.StatusInitial, CreatedAt: 1000}
	if err := store.Insert(ctx, tok); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, tok)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTokenStore_InvalidInput(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	cases := []*domain.Token{
		nil,
		{Address: "", Status: domain.StatusInitial},
		{Address: "Mint1", Status: domain.Status("bogus")},
	}
	for _, c := range cases {
		if err := store.Insert(ctx, c); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for %+v, got %v", c, err)
		}
	}
}

func TestTokenStore_NotFound(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if _, err := store.GetByAddress(ctx, "nonexistent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateStatus(ctx, "nonexistent", domain.StatusActive); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from UpdateStatus, got %v", err)
	}
	if err := store.MarkActivated(ctx, "nonexistent", 1000, nil); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from MarkActivated, got %v", err)
	}
	if err := store.UpdateLastScore(ctx, "nonexistent", 0.5, 1000); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from UpdateLastScore, got %v", err)
	}
}

func TestTokenStore_ListByStatus(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	tokens := []*domain.Token{
		{Address: "MintB", Status: domain.StatusInitial, CreatedAt: 2000},
		{Address: "MintA", Status: domain.StatusInitial, CreatedAt: 1000},
		{Address: "MintC", Status: domain.StatusActive, CreatedAt: 1500},
		{Address: "MintD", Status: domain.StatusInitial, CreatedAt: 1000},
	}
	for _, tok := range tokens {
		if err := store.Insert(ctx, tok); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.ListByStatus(ctx, domain.StatusInitial, 0)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 tokens, got %d", len(got))
	}

	// created_at ASC, address as tiebreaker
	want := []string{"MintA", "MintD", "MintB"}
	for i, w := range want {
		if got[i].Address != w {
			t.Errorf("Position %d: got %s, want %s", i, got[i].Address, w)
		}
	}

	// Limit applies after ordering
	limited, _ := store.ListByStatus(ctx, domain.StatusInitial, 2)
	if len(limited) != 2 || limited[1].Address != "MintD" {
		t.Errorf("Limit 2: got %v", limited)
	}
}

func TestTokenStore_MarkActivated(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.Token{Address: "Mint1", Status: domain.StatusInitial, CreatedAt: 1000}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	symbol := "BONK"
	if err := store.MarkActivated(ctx, "Mint1", 5000, &symbol); err != nil {
		t.Fatalf("MarkActivated failed: %v", err)
	}

	got, _ := store.GetByAddress(ctx, "Mint1")
	if got.Status != domain.StatusActive {
		t.Errorf("Status: got %s, want active", got.Status)
	}
	if got.ActivatedAt == nil || *got.ActivatedAt != 5000 {
		t.Errorf("ActivatedAt: got %v, want 5000", got.ActivatedAt)
	}
	if got.Symbol == nil || *got.Symbol != "BONK" {
		t.Errorf("Symbol: got %v, want BONK", got.Symbol)
	}

	// Nil symbol keeps the existing one
	if err := store.MarkActivated(ctx, "Mint1", 6000, nil); err != nil {
		t.Fatalf("MarkActivated failed: %v", err)
	}
	got, _ = store.GetByAddress(ctx, "Mint1")
	if got.Symbol == nil || *got.Symbol != "BONK" {
		t.Errorf("Symbol after nil update: got %v, want BONK", got.Symbol)
	}
}

func TestTokenStore_UpdateLastScore(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.Token{Address: "Mint1", Status: domain.StatusActive, CreatedAt: 1000}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.UpdateLastScore(ctx, "Mint1", 0.73, 9000); err != nil {
		t.Fatalf("UpdateLastScore failed: %v", err)
	}

	got, _ := store.GetByAddress(ctx, "Mint1")
	if got.LastScore == nil || *got.LastScore != 0.73 {
		t.Errorf("LastScore: got %v, want 0.73", got.LastScore)
	}
	if got.LastScoredAt == nil || *got.LastScoredAt != 9000 {
		t.Errorf("LastScoredAt: got %v, want 9000", got.LastScoredAt)
	}
}

func TestTokenStore_ConcurrentAccess(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			addr := string(rune('A'+n%26)) + "Mint"
			_ = store.Insert(ctx, &domain.Token{Address: addr, Status: domain.StatusInitial, CreatedAt: int64(n)})
			_, _ = store.GetByAddress(ctx, addr)
			_, _ = store.ListByStatus(ctx, domain.StatusInitial, 0)
		}(i)
	}
	wg.Wait()
}
