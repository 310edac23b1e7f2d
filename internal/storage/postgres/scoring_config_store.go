package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// scoringConfigKey is the single row key in the scoring_config table.
const scoringConfigKey = "scoring"

// ScoringConfigStore implements storage.ScoringConfigStore using PostgreSQL.
// The config is stored as one JSONB row; writes are last-write-wins.
type ScoringConfigStore struct {
	pool *Pool
}

// NewScoringConfigStore creates a new ScoringConfigStore.
func NewScoringConfigStore(pool *Pool) *ScoringConfigStore {
	return &ScoringConfigStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScoringConfigStore = (*ScoringConfigStore)(nil)

// Get retrieves the current config. Returns ErrNotFound when none stored.
func (s *ScoringConfigStore) Get(ctx context.Context) (domain.ScoringConfig, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM scoring_config WHERE key = $1`, scoringConfigKey,
	).Scan(&raw)
	if err != nil {
		if isNotFoundError(err) {
			return domain.ScoringConfig{}, storage.ErrNotFound
		}
		return domain.ScoringConfig{}, fmt.Errorf("get scoring config: %w", err)
	}

	var cfg domain.ScoringConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.ScoringConfig{}, fmt.Errorf("decode scoring config: %w", err)
	}
	return cfg, nil
}

// Put stores a config, replacing any previous one. Rejects invalid configs;
// the prior row stays untouched on validation failure.
func (s *ScoringConfigStore) Put(ctx context.Context, cfg domain.ScoringConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode scoring config: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO scoring_config (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, scoringConfigKey, raw, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put scoring config: %w", err)
	}
	return nil
}
