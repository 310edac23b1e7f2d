package clickhouse

import (
	"context"
	"fmt"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// TokenSnapshotStore implements storage.TokenSnapshotStore using ClickHouse.
type TokenSnapshotStore struct {
	conn *Conn
}

// NewTokenSnapshotStore creates a new TokenSnapshotStore.
func NewTokenSnapshotStore(conn *Conn) *TokenSnapshotStore {
	return &TokenSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TokenSnapshotStore = (*TokenSnapshotStore)(nil)

// Insert adds one snapshot. Returns ErrDuplicateKey on
// (token_address, timestamp_ms) duplicate.
func (s *TokenSnapshotStore) Insert(ctx context.Context, snap *domain.TokenSnapshot) error {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM token_snapshots WHERE token_address = ? AND timestamp_ms = ?`,
		snap.TokenAddress, uint64(snap.TimestampMs),
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO token_snapshots (token_address, timestamp_ms, holders, price)
		VALUES (?, ?, ?, ?)
	`, snap.TokenAddress, uint64(snap.TimestampMs), uint32(snap.Holders), snap.Price)
	if err != nil {
		return fmt.Errorf("insert token snapshot: %w", err)
	}
	return nil
}

// GetByToken retrieves all snapshots for a token, ordered by timestamp ASC.
func (s *TokenSnapshotStore) GetByToken(ctx context.Context, tokenAddress string) ([]*domain.TokenSnapshot, error) {
	query := `
		SELECT token_address, timestamp_ms, holders, price
		FROM token_snapshots
		WHERE token_address = ?
		ORDER BY timestamp_ms ASC
	`
	return s.query(ctx, query, tokenAddress)
}

// GetByTimeRange retrieves snapshots for a token within [start, end] (inclusive).
func (s *TokenSnapshotStore) GetByTimeRange(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.TokenSnapshot, error) {
	query := `
		SELECT token_address, timestamp_ms, holders, price
		FROM token_snapshots
		WHERE token_address = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`
	return s.query(ctx, query, tokenAddress, uint64(start), uint64(end))
}

// DeleteBefore removes snapshots older than cutoff. Housekeeping only.
func (s *TokenSnapshotStore) DeleteBefore(ctx context.Context, cutoffMs int64) error {
	err := s.conn.Exec(ctx,
		`ALTER TABLE token_snapshots DELETE WHERE timestamp_ms < ?`, uint64(cutoffMs))
	if err != nil {
		return fmt.Errorf("delete token snapshots before cutoff: %w", err)
	}
	return nil
}

func (s *TokenSnapshotStore) query(ctx context.Context, query string, args ...any) ([]*domain.TokenSnapshot, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query token snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.TokenSnapshot
	for rows.Next() {
		var snap domain.TokenSnapshot
		var ts uint64
		var holders uint32

		if err := rows.Scan(&snap.TokenAddress, &ts, &holders, &snap.Price); err != nil {
			return nil, fmt.Errorf("scan token snapshot row: %w", err)
		}

		snap.TimestampMs = int64(ts)
		snap.Holders = int(holders)
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token snapshot rows: %w", err)
	}

	return snaps, nil
}
