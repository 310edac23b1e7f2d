package memory

import (
	"context"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// ScoringConfigStore is an in-memory implementation of storage.ScoringConfigStore.
type ScoringConfigStore struct {
	mu  sync.RWMutex
	cfg *domain.ScoringConfig
}

// NewScoringConfigStore creates a new in-memory scoring config store.
func NewScoringConfigStore() *ScoringConfigStore {
	return &ScoringConfigStore{}
}

// Get retrieves the current config. Returns ErrNotFound when none stored.
func (s *ScoringConfigStore) Get(_ context.Context) (domain.ScoringConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cfg == nil {
		return domain.ScoringConfig{}, storage.ErrNotFound
	}
	return *s.cfg, nil
}

// Put stores a config, replacing any previous one. Invalid configs are
// rejected and the prior config stays in effect.
func (s *ScoringConfigStore) Put(_ context.Context, cfg domain.ScoringConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfgCopy := cfg
	s.cfg = &cfgCopy
	return nil
}

// Verify interface compliance at compile time.
var _ storage.ScoringConfigStore = (*ScoringConfigStore)(nil)
