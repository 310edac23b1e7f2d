package memory

import (
	"context"
	"errors"
	"testing"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

func TestPoolStore_InsertAndGet(t *testing.T) {
	store := NewPoolStore()
	ctx := context.Background()

	p := &domain.Pool{
		PoolAddress:  "PoolA",
		TokenAddress: "Mint1",
		Dex:          "raydium",
		Active:       true,
		CreatedAt:    1000,
	}

	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByAddress(ctx, "PoolA")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if got.TokenAddress != "Mint1" || got.Dex != "raydium" || !got.Active {
		t.Errorf("Unexpected pool: %+v", got)
	}
}

func TestPoolStore_DuplicateKey(t *testing.T) {
	store := NewPoolStore()
	ctx := context.Background()

	p := &domain.Pool{PoolAddress: "PoolA", TokenAddress: "Mint1", Dex: "raydium", CreatedAt: 1}
	if err := store.Insert(ctx, p); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, p); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPoolStore_InvalidInput(t *testing.T) {
	store := NewPoolStore()
	ctx := context.Background()

	cases := []*domain.Pool{
		nil,
		{PoolAddress: "", TokenAddress: "Mint1"},
		{PoolAddress: "PoolA", TokenAddress: ""},
	}
	for _, c := range cases {
		if err := store.Insert(ctx, c); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for %+v, got %v", c, err)
		}
	}
}

func TestPoolStore_ListByToken(t *testing.T) {
	store := NewPoolStore()
	ctx := context.Background()

	pools := []*domain.Pool{
		{PoolAddress: "PoolC", TokenAddress: "Mint1", Dex: "raydium", CreatedAt: 3},
		{PoolAddress: "PoolA", TokenAddress: "Mint1", Dex: "meteora", CreatedAt: 1},
		{PoolAddress: "PoolB", TokenAddress: "Mint2", Dex: "raydium", CreatedAt: 2},
	}
	for _, p := range pools {
		if err := store.Insert(ctx, p); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.ListByToken(ctx, "Mint1")
	if err != nil {
		t.Fatalf("ListByToken failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 pools, got %d", len(got))
	}
	if got[0].PoolAddress != "PoolA" || got[1].PoolAddress != "PoolC" {
		t.Errorf("Wrong order: %s, %s", got[0].PoolAddress, got[1].PoolAddress)
	}
}

func TestPoolStore_SetActive(t *testing.T) {
	store := NewPoolStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.Pool{PoolAddress: "PoolA", TokenAddress: "Mint1", Active: true, CreatedAt: 1}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.SetActive(ctx, "PoolA", false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	got, _ := store.GetByAddress(ctx, "PoolA")
	if got.Active {
		t.Error("Expected pool to be inactive")
	}

	if err := store.SetActive(ctx, "missing", true); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
