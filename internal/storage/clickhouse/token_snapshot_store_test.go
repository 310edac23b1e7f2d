package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

func TestTokenSnapshotStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenSnapshotStore(conn)
	ctx := context.Background()

	snap := &domain.TokenSnapshot{
		TokenAddress: "Mint1",
		TimestampMs:  1000,
		Holders:      250,
		Price:        ptr(0.0042),
	}
	require.NoError(t, store.Insert(ctx, snap))

	got, err := store.GetByToken(ctx, "Mint1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mint1", got[0].TokenAddress)
	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.Equal(t, 250, got[0].Holders)
	require.NotNil(t, got[0].Price)
	assert.Equal(t, 0.0042, *got[0].Price)
}

func TestTokenSnapshotStore_NilPrice(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenSnapshotStore(conn)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.TokenSnapshot{
		TokenAddress: "Mint1",
		TimestampMs:  1000,
		Holders:      10,
	}))

	got, err := store.GetByToken(ctx, "Mint1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Price)
}

func TestTokenSnapshotStore_Duplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenSnapshotStore(conn)
	ctx := context.Background()

	snap := &domain.TokenSnapshot{TokenAddress: "Mint1", TimestampMs: 1000, Holders: 10}
	require.NoError(t, store.Insert(ctx, snap))
	assert.ErrorIs(t, store.Insert(ctx, snap), storage.ErrDuplicateKey)
}

func TestTokenSnapshotStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenSnapshotStore(conn)
	ctx := context.Background()

	for _, ts := range []int64{1000, 2000, 3000} {
		require.NoError(t, store.Insert(ctx, &domain.TokenSnapshot{
			TokenAddress: "Mint1", TimestampMs: ts, Holders: int(ts / 100),
		}))
	}

	got, err := store.GetByTimeRange(ctx, "Mint1", 0, 2000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.Equal(t, int64(2000), got[1].TimestampMs)
	assert.Equal(t, 20, got[1].Holders)
}
