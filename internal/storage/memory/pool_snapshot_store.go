package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

type poolSnapshotKey struct {
	poolAddress string
	timestampMs int64
}

// PoolSnapshotStore is an in-memory implementation of storage.PoolSnapshotStore.
type PoolSnapshotStore struct {
	mu   sync.RWMutex
	data map[poolSnapshotKey]*domain.PoolSnapshot
}

// NewPoolSnapshotStore creates a new in-memory pool snapshot store.
func NewPoolSnapshotStore() *PoolSnapshotStore {
	return &PoolSnapshotStore{
		data: make(map[poolSnapshotKey]*domain.PoolSnapshot),
	}
}

// InsertBulk adds multiple snapshots. Fails the entire batch on any duplicate.
func (s *PoolSnapshotStore) InsertBulk(_ context.Context, snaps []*domain.PoolSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	for _, snap := range snaps {
		if snap == nil || snap.PoolAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before writing anything
	seen := make(map[poolSnapshotKey]struct{})
	for _, snap := range snaps {
		k := poolSnapshotKey{snap.PoolAddress, snap.TimestampMs}
		if _, dup := seen[k]; dup {
			return storage.ErrDuplicateKey
		}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, snap := range snaps {
		snapCopy := *snap
		s.data[poolSnapshotKey{snap.PoolAddress, snap.TimestampMs}] = &snapCopy
	}
	return nil
}

// GetByPool retrieves all snapshots for a pool, ordered by timestamp ASC.
func (s *PoolSnapshotStore) GetByPool(_ context.Context, poolAddress string) ([]*domain.PoolSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PoolSnapshot
	for k, snap := range s.data {
		if k.poolAddress == poolAddress {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sortPoolSnapshots(result)
	return result, nil
}

// GetByTimeRange retrieves snapshots for a pool within [start, end] (inclusive).
func (s *PoolSnapshotStore) GetByTimeRange(_ context.Context, poolAddress string, start, end int64) ([]*domain.PoolSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PoolSnapshot
	for k, snap := range s.data {
		if k.poolAddress == poolAddress && k.timestampMs >= start && k.timestampMs <= end {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sortPoolSnapshots(result)
	return result, nil
}

// DeleteBefore removes snapshots older than cutoff.
func (s *PoolSnapshotStore) DeleteBefore(_ context.Context, cutoffMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.data {
		if k.timestampMs < cutoffMs {
			delete(s.data, k)
		}
	}
	return nil
}

func sortPoolSnapshots(snaps []*domain.PoolSnapshot) {
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].TimestampMs < snaps[j].TimestampMs
	})
}

// Verify interface compliance at compile time.
var _ storage.PoolSnapshotStore = (*PoolSnapshotStore)(nil)
