package postgres

import (
	"context"
	"fmt"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// TransitionStore implements storage.TransitionStore using PostgreSQL.
// The table is an append-only audit log.
type TransitionStore struct {
	pool *Pool
}

// NewTransitionStore creates a new TransitionStore.
func NewTransitionStore(pool *Pool) *TransitionStore {
	return &TransitionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransitionStore = (*TransitionStore)(nil)

// Insert appends one transition record.
func (s *TransitionStore) Insert(ctx context.Context, tr *domain.StatusTransition) error {
	query := `
		INSERT INTO status_transitions (token_address, from_status, to_status, ts, reason)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		tr.TokenAddress,
		string(tr.FromStatus),
		string(tr.ToStatus),
		tr.TimestampMs,
		string(tr.Reason),
	)
	if err != nil {
		return fmt.Errorf("insert status transition: %w", err)
	}
	return nil
}

// ListByToken retrieves all transitions of a token, ordered by timestamp ASC.
func (s *TransitionStore) ListByToken(ctx context.Context, tokenAddress string) ([]*domain.StatusTransition, error) {
	query := `
		SELECT token_address, from_status, to_status, ts, reason
		FROM status_transitions
		WHERE token_address = $1
		ORDER BY ts ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("list transitions by token: %w", err)
	}
	defer rows.Close()

	var transitions []*domain.StatusTransition
	for rows.Next() {
		var tr domain.StatusTransition
		var fromStr, toStr, reasonStr string

		if err := rows.Scan(&tr.TokenAddress, &fromStr, &toStr, &tr.TimestampMs, &reasonStr); err != nil {
			return nil, fmt.Errorf("scan transition row: %w", err)
		}

		tr.FromStatus = domain.Status(fromStr)
		tr.ToStatus = domain.Status(toStr)
		tr.Reason = domain.TransitionReason(reasonStr)
		transitions = append(transitions, &tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transition rows: %w", err)
	}

	return transitions, nil
}
