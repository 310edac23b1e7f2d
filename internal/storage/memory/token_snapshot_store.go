package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

type tokenSnapshotKey struct {
	tokenAddress string
	timestampMs  int64
}

// TokenSnapshotStore is an in-memory implementation of storage.TokenSnapshotStore.
type TokenSnapshotStore struct {
	mu   sync.RWMutex
	data map[tokenSnapshotKey]*domain.TokenSnapshot
}

// NewTokenSnapshotStore creates a new in-memory token snapshot store.
func NewTokenSnapshotStore() *TokenSnapshotStore {
	return &TokenSnapshotStore{
		data: make(map[tokenSnapshotKey]*domain.TokenSnapshot),
	}
}

// Insert adds one snapshot. Returns ErrDuplicateKey on duplicate.
func (s *TokenSnapshotStore) Insert(_ context.Context, snap *domain.TokenSnapshot) error {
	if snap == nil || snap.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := tokenSnapshotKey{snap.TokenAddress, snap.TimestampMs}
	if _, exists := s.data[k]; exists {
		return storage.ErrDuplicateKey
	}

	snapCopy := *snap
	s.data[k] = &snapCopy
	return nil
}

// GetByToken retrieves all snapshots for a token, ordered by timestamp ASC.
func (s *TokenSnapshotStore) GetByToken(_ context.Context, tokenAddress string) ([]*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenSnapshot
	for k, snap := range s.data {
		if k.tokenAddress == tokenAddress {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sortTokenSnapshots(result)
	return result, nil
}

// GetByTimeRange retrieves snapshots for a token within [start, end] (inclusive).
func (s *TokenSnapshotStore) GetByTimeRange(_ context.Context, tokenAddress string, start, end int64) ([]*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenSnapshot
	for k, snap := range s.data {
		if k.tokenAddress == tokenAddress && k.timestampMs >= start && k.timestampMs <= end {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sortTokenSnapshots(result)
	return result, nil
}

// DeleteBefore removes snapshots older than cutoff.
func (s *TokenSnapshotStore) DeleteBefore(_ context.Context, cutoffMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.data {
		if k.timestampMs < cutoffMs {
			delete(s.data, k)
		}
	}
	return nil
}

func sortTokenSnapshots(snaps []*domain.TokenSnapshot) {
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].TimestampMs < snaps[j].TimestampMs
	})
}

// Verify interface compliance at compile time.
var _ storage.TokenSnapshotStore = (*TokenSnapshotStore)(nil)
