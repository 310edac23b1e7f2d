package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

type scoreKey struct {
	tokenAddress string
	timestampMs  int64
}

// ScoreStore is an in-memory implementation of storage.ScoreStore.
type ScoreStore struct {
	mu   sync.RWMutex
	data map[scoreKey]*domain.ScoreRecord
}

// NewScoreStore creates a new in-memory score store.
func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		data: make(map[scoreKey]*domain.ScoreRecord),
	}
}

// Insert adds one score record. Returns ErrDuplicateKey on duplicate.
func (s *ScoreStore) Insert(_ context.Context, r *domain.ScoreRecord) error {
	if r == nil || r.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := scoreKey{r.TokenAddress, r.TimestampMs}
	if _, exists := s.data[k]; exists {
		return storage.ErrDuplicateKey
	}

	recordCopy := *r
	s.data[k] = &recordCopy
	return nil
}

// GetByToken retrieves all records for a token, ordered by timestamp ASC.
func (s *ScoreStore) GetByToken(_ context.Context, tokenAddress string) ([]*domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScoreRecord
	for k, r := range s.data {
		if k.tokenAddress == tokenAddress {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sortScoreRecords(result)
	return result, nil
}

// GetByTimeRange retrieves records for a token within [start, end] (inclusive).
func (s *ScoreStore) GetByTimeRange(_ context.Context, tokenAddress string, start, end int64) ([]*domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScoreRecord
	for k, r := range s.data {
		if k.tokenAddress == tokenAddress && k.timestampMs >= start && k.timestampMs <= end {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sortScoreRecords(result)
	return result, nil
}

// DeleteBefore removes records older than cutoff.
func (s *ScoreStore) DeleteBefore(_ context.Context, cutoffMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.data {
		if k.timestampMs < cutoffMs {
			delete(s.data, k)
		}
	}
	return nil
}

func sortScoreRecords(records []*domain.ScoreRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].TimestampMs < records[j].TimestampMs
	})
}

// Verify interface compliance at compile time.
var _ storage.ScoreStore = (*ScoreStore)(nil)
