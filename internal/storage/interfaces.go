package storage

import (
	"context"

	"solana-token-radar/internal/domain"
)

// TokenStore provides access to tokens storage.
// Tokens are never deleted; archived tokens remain for audit.
type TokenStore interface {
	// Insert adds a new token. Returns ErrDuplicateKey if the address exists,
	// which callers treat as an idempotent no-op.
	Insert(ctx context.Context, t *domain.Token) error

	// GetByAddress retrieves a token by address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Token, error)

	// ListByStatus retrieves tokens in a given lifecycle state, ordered by
	// created_at ASC. limit <= 0 means no limit.
	ListByStatus(ctx context.Context, status domain.Status, limit int) ([]*domain.Token, error)

	// UpdateStatus sets the lifecycle state of a token.
	// Returns ErrNotFound if the token does not exist.
	UpdateStatus(ctx context.Context, address string, status domain.Status) error

	// MarkActivated sets status Active, records the activation timestamp and,
	// when non-nil, the symbol learned from the primary provider.
	MarkActivated(ctx context.Context, address string, activatedAtMs int64, symbol *string) error

	// UpdateLastScore updates the denormalized last-score fields.
	UpdateLastScore(ctx context.Context, address string, score float64, scoredAtMs int64) error
}

// PoolStore provides access to pools storage.
type PoolStore interface {
	// Insert adds a new pool. Returns ErrDuplicateKey if pool_address exists.
	Insert(ctx context.Context, p *domain.Pool) error

	// GetByAddress retrieves a pool by address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, poolAddress string) (*domain.Pool, error)

	// ListByToken retrieves all pools of a token, ordered by created_at ASC.
	ListByToken(ctx context.Context, tokenAddress string) ([]*domain.Pool, error)

	// SetActive flips the active flag. Returns ErrNotFound if not exists.
	SetActive(ctx context.Context, poolAddress string, active bool) error
}

// PoolSnapshotStore provides access to pool_snapshots storage (append-only).
type PoolSnapshotStore interface {
	// InsertBulk adds multiple snapshots. Fails the entire batch on a
	// duplicate (pool_address, timestamp_ms).
	InsertBulk(ctx context.Context, snaps []*domain.PoolSnapshot) error

	// GetByPool retrieves all snapshots for a pool, ordered by timestamp ASC.
	GetByPool(ctx context.Context, poolAddress string) ([]*domain.PoolSnapshot, error)

	// GetByTimeRange retrieves snapshots for a pool within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, poolAddress string, start, end int64) ([]*domain.PoolSnapshot, error)

	// DeleteBefore removes snapshots older than cutoff. Housekeeping only.
	DeleteBefore(ctx context.Context, cutoffMs int64) error
}

// TokenSnapshotStore provides access to token_snapshots storage (append-only).
type TokenSnapshotStore interface {
	// Insert adds one snapshot. Returns ErrDuplicateKey on
	// (token_address, timestamp_ms) duplicate.
	Insert(ctx context.Context, s *domain.TokenSnapshot) error

	// GetByToken retrieves all snapshots for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, tokenAddress string) ([]*domain.TokenSnapshot, error)

	// GetByTimeRange retrieves snapshots for a token within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.TokenSnapshot, error)

	// DeleteBefore removes snapshots older than cutoff. Housekeeping only.
	DeleteBefore(ctx context.Context, cutoffMs int64) error
}

// ScoreStore provides access to score_records storage (append-only).
type ScoreStore interface {
	// Insert adds one score record. Returns ErrDuplicateKey on
	// (token_address, timestamp_ms) duplicate.
	Insert(ctx context.Context, r *domain.ScoreRecord) error

	// GetByToken retrieves all records for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, tokenAddress string) ([]*domain.ScoreRecord, error)

	// GetByTimeRange retrieves records for a token within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, tokenAddress string, start, end int64) ([]*domain.ScoreRecord, error)

	// DeleteBefore removes records older than cutoff. Housekeeping only.
	DeleteBefore(ctx context.Context, cutoffMs int64) error
}

// TransitionStore provides access to the status_transitions audit log (append-only).
type TransitionStore interface {
	// Insert appends one transition record.
	Insert(ctx context.Context, tr *domain.StatusTransition) error

	// ListByToken retrieves all transitions of a token, ordered by timestamp ASC.
	ListByToken(ctx context.Context, tokenAddress string) ([]*domain.StatusTransition, error)
}

// ScoringConfigStore provides access to the operator-editable scoring config.
type ScoringConfigStore interface {
	// Get retrieves the current config. Returns ErrNotFound when no config
	// has ever been stored; callers fall back to domain.DefaultScoringConfig.
	Get(ctx context.Context) (domain.ScoringConfig, error)

	// Put stores a config, replacing any previous one (last-write-wins).
	// Returns domain.ErrConfigInvalid (wrapped) if validation fails; the
	// prior config stays in effect.
	Put(ctx context.Context, cfg domain.ScoringConfig) error
}
