package clickhouse

import (
	"context"
	"fmt"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// PoolSnapshotStore implements storage.PoolSnapshotStore using ClickHouse.
type PoolSnapshotStore struct {
	conn *Conn
}

// NewPoolSnapshotStore creates a new PoolSnapshotStore.
func NewPoolSnapshotStore(conn *Conn) *PoolSnapshotStore {
	return &PoolSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PoolSnapshotStore = (*PoolSnapshotStore)(nil)

// InsertBulk adds multiple snapshots. Fails the entire batch on a duplicate
// (pool_address, timestamp_ms). MergeTree does not enforce uniqueness, so
// duplicates are detected with explicit checks before the batch insert.
func (s *PoolSnapshotStore) InsertBulk(ctx context.Context, snaps []*domain.PoolSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		poolAddress string
		timestampMs int64
	}
	seen := make(map[key]struct{})
	for _, snap := range snaps {
		k := key{snap.PoolAddress, snap.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, snap := range snaps {
		exists, err := s.exists(ctx, snap.PoolAddress, snap.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pool_snapshots (
			pool_address, token_address, timestamp_ms,
			tx_count_5m, tx_count_1h, volume_5m, volume_1h,
			buy_volume_5m, sell_volume_5m, liquidity
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snaps {
		err = batch.Append(
			snap.PoolAddress, snap.TokenAddress, uint64(snap.TimestampMs),
			uint32(snap.TxCount5m), uint32(snap.TxCount1h),
			snap.Volume5m, snap.Volume1h,
			snap.BuyVolume5m, snap.SellVolume5m, snap.Liquidity,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPool retrieves all snapshots for a pool, ordered by timestamp ASC.
func (s *PoolSnapshotStore) GetByPool(ctx context.Context, poolAddress string) ([]*domain.PoolSnapshot, error) {
	query := `
		SELECT pool_address, token_address, timestamp_ms,
		       tx_count_5m, tx_count_1h, volume_5m, volume_1h,
		       buy_volume_5m, sell_volume_5m, liquidity
		FROM pool_snapshots
		WHERE pool_address = ?
		ORDER BY timestamp_ms ASC
	`
	return s.query(ctx, query, poolAddress)
}

// GetByTimeRange retrieves snapshots for a pool within [start, end] (inclusive).
func (s *PoolSnapshotStore) GetByTimeRange(ctx context.Context, poolAddress string, start, end int64) ([]*domain.PoolSnapshot, error) {
	query := `
		SELECT pool_address, token_address, timestamp_ms,
		       tx_count_5m, tx_count_1h, volume_5m, volume_1h,
		       buy_volume_5m, sell_volume_5m, liquidity
		FROM pool_snapshots
		WHERE pool_address = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`
	return s.query(ctx, query, poolAddress, uint64(start), uint64(end))
}

// DeleteBefore removes snapshots older than cutoff. Housekeeping only.
func (s *PoolSnapshotStore) DeleteBefore(ctx context.Context, cutoffMs int64) error {
	err := s.conn.Exec(ctx,
		`ALTER TABLE pool_snapshots DELETE WHERE timestamp_ms < ?`, uint64(cutoffMs))
	if err != nil {
		return fmt.Errorf("delete pool snapshots before cutoff: %w", err)
	}
	return nil
}

func (s *PoolSnapshotStore) exists(ctx context.Context, poolAddress string, timestampMs int64) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM pool_snapshots WHERE pool_address = ? AND timestamp_ms = ?`,
		poolAddress, uint64(timestampMs),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *PoolSnapshotStore) query(ctx context.Context, query string, args ...any) ([]*domain.PoolSnapshot, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pool snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.PoolSnapshot
	for rows.Next() {
		var snap domain.PoolSnapshot
		var ts uint64
		var tx5m, tx1h uint32

		err := rows.Scan(
			&snap.PoolAddress, &snap.TokenAddress, &ts,
			&tx5m, &tx1h, &snap.Volume5m, &snap.Volume1h,
			&snap.BuyVolume5m, &snap.SellVolume5m, &snap.Liquidity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pool snapshot row: %w", err)
		}

		snap.TimestampMs = int64(ts)
		snap.TxCount5m = int(tx5m)
		snap.TxCount1h = int(tx1h)
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool snapshot rows: %w", err)
	}

	return snaps, nil
}
