package clickhouse

import (
	"context"
	"fmt"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// ScoreStore implements storage.ScoreStore using ClickHouse.
// Component values and the weights in effect are stored alongside the
// composite so historical scores stay explainable after config edits.
type ScoreStore struct {
	conn *Conn
}

// NewScoreStore creates a new ScoreStore.
func NewScoreStore(conn *Conn) *ScoreStore {
	return &ScoreStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoreStore = (*ScoreStore)(nil)

// Insert adds one score record. Returns ErrDuplicateKey on
// (token_address, timestamp_ms) duplicate.
func (s *ScoreStore) Insert(ctx context.Context, r *domain.ScoreRecord) error {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM score_records WHERE token_address = ? AND timestamp_ms = ?`,
		r.TokenAddress, uint64(r.TimestampMs),
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO score_records (
			token_address, timestamp_ms, score, raw_score,
			tx_accel, vol_momentum, holder_growth, orderflow_imbalance,
			w_tx_accel, w_vol_momentum, w_holder_growth, w_orderflow_imbalance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.TokenAddress, uint64(r.TimestampMs), r.Score, r.RawScore,
		r.Components.TxAccel, r.Components.VolMomentum,
		r.Components.HolderGrowth, r.Components.OrderflowImbalance,
		r.Weights.TxAccel, r.Weights.VolMomentum,
		r.Weights.HolderGrowth, r.Weights.OrderflowImbalance,
	)
	if err != nil {
		return fmt.Errorf("insert score record: %w", err)
	}
	return nil
}

// GetByToken retrieves all records for a token, ordered by timestamp ASC.
func (s *ScoreStore) GetByToken(ctx context.Context, tokenAddress string) ([]*domain.ScoreRecord, error) {
	query := `
		SELECT token_address, timestamp_ms, score, raw_score,
		       tx_accel, vol_momentum, holder_growth, orderflow_imbalance,
		       w_tx_accel, w_vol_momentum, w_holder_growth, w_orderflow_imbalance
		FROM score_records
		WHERE token_address = ?
		ORDER BY timestamp_ms ASC
	`
	return s.query(ctx, query, tokenAddress)
}

// GetByTimeRange retrieves records for a token within [start, end] (inclusive).
func (s *ScoreStore) GetByTimeRange(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.ScoreRecord, error) {
	query := `
		SELECT token_address, timestamp_ms, score, raw_score,
		       tx_accel, vol_momentum, holder_growth, orderflow_imbalance,
		       w_tx_accel, w_vol_momentum, w_holder_growth, w_orderflow_imbalance
		FROM score_records
		WHERE token_address = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`
	return s.query(ctx, query, tokenAddress, uint64(start), uint64(end))
}

// DeleteBefore removes records older than cutoff. Housekeeping only.
func (s *ScoreStore) DeleteBefore(ctx context.Context, cutoffMs int64) error {
	err := s.conn.Exec(ctx,
		`ALTER TABLE score_records DELETE WHERE timestamp_ms < ?`, uint64(cutoffMs))
	if err != nil {
		return fmt.Errorf("delete score records before cutoff: %w", err)
	}
	return nil
}

func (s *ScoreStore) query(ctx context.Context, query string, args ...any) ([]*domain.ScoreRecord, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query score records: %w", err)
	}
	defer rows.Close()

	var records []*domain.ScoreRecord
	for rows.Next() {
		var r domain.ScoreRecord
		var ts uint64

		err := rows.Scan(
			&r.TokenAddress, &ts, &r.Score, &r.RawScore,
			&r.Components.TxAccel, &r.Components.VolMomentum,
			&r.Components.HolderGrowth, &r.Components.OrderflowImbalance,
			&r.Weights.TxAccel, &r.Weights.VolMomentum,
			&r.Weights.HolderGrowth, &r.Weights.OrderflowImbalance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan score record row: %w", err)
		}

		r.TimestampMs = int64(ts)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score record rows: %w", err)
	}

	return records, nil
}
