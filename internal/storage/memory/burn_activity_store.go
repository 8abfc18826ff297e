package memory

import (
	"context"
	"sort"
	"sync"

	"vault-recycler/internal/domain"
	"vault-recycler/internal/storage"
)

// BurnActivityStore is an in-memory implementation of
// storage.BurnActivityStore.
type BurnActivityStore struct {
	mu   sync.RWMutex
	rows []*domain.BurnActivity
	seen map[activityKey]struct{}
}

type activityKey struct {
	vault string
	kind  domain.ActivityKind
	slot  int64
}

// NewBurnActivityStore creates a new in-memory burn activity store.
func NewBurnActivityStore() *BurnActivityStore {
	return &BurnActivityStore{
		seen: make(map[activityKey]struct{}),
	}
}

// Compile-time interface check.
var _ storage.BurnActivityStore = (*BurnActivityStore)(nil)

// InsertBulk appends activity rows, failing the whole batch on any
// duplicate (vault, kind, slot).
func (s *BurnActivityStore) InsertBulk(_ context.Context, rows []*domain.BurnActivity) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the full batch before mutating anything.
	batch := make(map[activityKey]struct{}, len(rows))
	for _, row := range rows {
		if row == nil || row.VaultAddress == "" {
			return storage.ErrInvalidInput
		}
		k := activityKey{row.VaultAddress, row.Kind, row.Slot}
		if _, dup := batch[k]; dup {
			return storage.ErrDuplicateKey
		}
		if _, dup := s.seen[k]; dup {
			return storage.ErrDuplicateKey
		}
		batch[k] = struct{}{}
	}

	for _, row := range rows {
		rowCopy := *row
		s.rows = append(s.rows, &rowCopy)
		s.seen[activityKey{row.VaultAddress, row.Kind, row.Slot}] = struct{}{}
	}
	return nil
}

// GetByVault retrieves all activity for a vault, ordered by timestamp ASC.
func (s *BurnActivityStore) GetByVault(_ context.Context, vaultAddress string) ([]*domain.BurnActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BurnActivity
	for _, row := range s.rows {
		if row.VaultAddress == vaultAddress {
			rowCopy := *row
			result = append(result, &rowCopy)
		}
	}

	sortActivity(result)
	return result, nil
}

// GetByVaultTimeRange retrieves activity within [start, end) in unix ms.
func (s *BurnActivityStore) GetByVaultTimeRange(_ context.Context, vaultAddress string, start, end int64) ([]*domain.BurnActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BurnActivity
	for _, row := range s.rows {
		if row.VaultAddress == vaultAddress && row.Timestamp >= start && row.Timestamp < end {
			rowCopy := *row
			result = append(result, &rowCopy)
		}
	}

	sortActivity(result)
	return result, nil
}

func sortActivity(rows []*domain.BurnActivity) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Timestamp != rows[j].Timestamp {
			return rows[i].Timestamp < rows[j].Timestamp
		}
		return rows[i].Slot < rows[j].Slot
	})
}
