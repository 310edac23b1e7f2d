package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Token // keyed by address
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]*domain.Token),
	}
}

// Insert adds a new token. Returns ErrDuplicateKey if the address exists.
func (s *TokenStore) Insert(_ context.Context, t *domain.Token) error {
	if t == nil || t.Address == "" || !t.Status.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.Address]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	tokenCopy := *t
	s.data[t.Address] = &tokenCopy
	return nil
}

// GetByAddress retrieves a token by address. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByAddress(_ context.Context, address string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// ListByStatus retrieves tokens in a given state, ordered by created_at ASC.
func (s *TokenStore) ListByStatus(_ context.Context, status domain.Status, limit int) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Token
	for _, t := range s.data {
		if t.Status == status {
			tokenCopy := *t
			result = append(result, &tokenCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].Address < result[j].Address
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// UpdateStatus sets the lifecycle state of a token.
func (s *TokenStore) UpdateStatus(_ context.Context, address string, status domain.Status) error {
	if !status.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[address]
	if !exists {
		return storage.ErrNotFound
	}
	t.Status = status
	return nil
}

// MarkActivated sets status Active, activation timestamp and optional symbol.
func (s *TokenStore) MarkActivated(_ context.Context, address string, activatedAtMs int64, symbol *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[address]
	if !exists {
		return storage.ErrNotFound
	}

	t.Status = domain.StatusActive
	t.ActivatedAt = &activatedAtMs
	if symbol != nil {
		symbolCopy := *symbol
		t.Symbol = &symbolCopy
	}
	return nil
}

// UpdateLastScore updates the denormalized last-score fields.
func (s *TokenStore) UpdateLastScore(_ context.Context, address string, score float64, scoredAtMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[address]
	if !exists {
		return storage.ErrNotFound
	}

	t.LastScore = &score
	t.LastScoredAt = &scoredAtMs
	return nil
}

// Verify interface compliance at compile time.
var _ storage.TokenStore = (*TokenStore)(nil)
