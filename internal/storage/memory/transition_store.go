package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// TransitionStore is an in-memory implementation of storage.TransitionStore.
type TransitionStore struct {
	mu   sync.RWMutex
	data []*domain.StatusTransition
}

// NewTransitionStore creates a new in-memory transition store.
func NewTransitionStore() *TransitionStore {
	return &TransitionStore{}
}

// Insert appends one transition record.
func (s *TransitionStore) Insert(_ context.Context, tr *domain.StatusTransition) error {
	if tr == nil || tr.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trCopy := *tr
	s.data = append(s.data, &trCopy)
	return nil
}

// ListByToken retrieves all transitions of a token, ordered by timestamp ASC.
func (s *TransitionStore) ListByToken(_ context.Context, tokenAddress string) ([]*domain.StatusTransition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.StatusTransition
	for _, tr := range s.data {
		if tr.TokenAddress == tokenAddress {
			trCopy := *tr
			result = append(result, &trCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.TransitionStore = (*TransitionStore)(nil)
