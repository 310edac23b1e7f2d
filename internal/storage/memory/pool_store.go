package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// PoolStore is an in-memory implementation of storage.PoolStore.
type PoolStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Pool // keyed by pool_address
}

// NewPoolStore creates a new in-memory pool store.
func NewPoolStore() *PoolStore {
	return &PoolStore{
		data: make(map[string]*domain.Pool),
	}
}

// Insert adds a new pool. Returns ErrDuplicateKey if pool_address exists.
func (s *PoolStore) Insert(_ context.Context, p *domain.Pool) error {
	if p == nil || p.PoolAddress == "" || p.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PoolAddress]; exists {
		return storage.ErrDuplicateKey
	}

	poolCopy := *p
	s.data[p.PoolAddress] = &poolCopy
	return nil
}

// GetByAddress retrieves a pool by address. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByAddress(_ context.Context, poolAddress string) (*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[poolAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}

	poolCopy := *p
	return &poolCopy, nil
}

// ListByToken retrieves all pools of a token, ordered by created_at ASC.
func (s *PoolStore) ListByToken(_ context.Context, tokenAddress string) ([]*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Pool
	for _, p := range s.data {
		if p.TokenAddress == tokenAddress {
			poolCopy := *p
			result = append(result, &poolCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].PoolAddress < result[j].PoolAddress
	})

	return result, nil
}

// SetActive flips the active flag. Returns ErrNotFound if not exists.
func (s *PoolStore) SetActive(_ context.Context, poolAddress string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[poolAddress]
	if !exists {
		return storage.ErrNotFound
	}
	p.Active = active
	return nil
}

// Verify interface compliance at compile time.
var _ storage.PoolStore = (*PoolStore)(nil)
