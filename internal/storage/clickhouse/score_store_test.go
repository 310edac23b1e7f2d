package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

func TestScoreStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScoreStore(conn)
	ctx := context.Background()

	r := &domain.ScoreRecord{
		TokenAddress: "Mint1",
		TimestampMs:  1000,
		Score:        0.42,
		RawScore:     0.55,
		Components: domain.Components{
			TxAccel:            1.2,
			VolMomentum:        0.8,
			HolderGrowth:       0.05,
			OrderflowImbalance: 0.33,
		},
		Weights: domain.Weights{
			TxAccel:            0.25,
			VolMomentum:        0.25,
			HolderGrowth:       0.25,
			OrderflowImbalance: 0.25,
		},
	}
	require.NoError(t, store.Insert(ctx, r))

	got, err := store.GetByToken(ctx, "Mint1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.42, got[0].Score)
	assert.Equal(t, 0.55, got[0].RawScore)
	assert.Equal(t, r.Components, got[0].Components)
	assert.Equal(t, r.Weights, got[0].Weights)
}

func TestScoreStore_Duplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScoreStore(conn)
	ctx := context.Background()

	r := &domain.ScoreRecord{TokenAddress: "Mint1", TimestampMs: 1000, Score: 0.1}
	require.NoError(t, store.Insert(ctx, r))
	assert.ErrorIs(t, store.Insert(ctx, r), storage.ErrDuplicateKey)
}

func TestScoreStore_GetByTokenOrdered(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScoreStore(conn)
	ctx := context.Background()

	for _, ts := range []int64{3000, 1000, 2000} {
		require.NoError(t, store.Insert(ctx, &domain.ScoreRecord{
			TokenAddress: "Mint1", TimestampMs: ts, Score: float64(ts),
		}))
	}

	got, err := store.GetByToken(ctx, "Mint1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.Equal(t, int64(2000), got[1].TimestampMs)
	assert.Equal(t, int64(3000), got[2].TimestampMs)
}

func TestScoreStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScoreStore(conn)
	ctx := context.Background()

	for _, ts := range []int64{1000, 2000, 3000} {
		require.NoError(t, store.Insert(ctx, &domain.ScoreRecord{
			TokenAddress: "Mint1", TimestampMs: ts,
		}))
	}

	got, err := store.GetByTimeRange(ctx, "Mint1", 2000, 3000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2000), got[0].TimestampMs)
	assert.Equal(t, int64(3000), got[1].TimestampMs)
}
