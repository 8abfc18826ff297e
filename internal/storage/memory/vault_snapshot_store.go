// Package memory provides in-memory storage implementations for tests
// and single-process runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"vault-recycler/internal/domain"
	"vault-recycler/internal/storage"
)

// VaultSnapshotStore is an in-memory implementation of
// storage.VaultSnapshotStore.
type VaultSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VaultSnapshot // keyed by vault address
}

// NewVaultSnapshotStore creates a new in-memory vault snapshot store.
func NewVaultSnapshotStore() *VaultSnapshotStore {
	return &VaultSnapshotStore{
		data: make(map[string]*domain.VaultSnapshot),
	}
}

// Compile-time interface check.
var _ storage.VaultSnapshotStore = (*VaultSnapshotStore)(nil)

// Upsert stores the snapshot unless an equal-or-newer slot is present.
func (s *VaultSnapshotStore) Upsert(_ context.Context, snap *domain.VaultSnapshot) error {
	if snap == nil || snap.Vault.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[snap.Vault.Address]; ok && existing.Slot > snap.Slot {
		return nil
	}

	// Store a copy to prevent external mutation
	snapCopy := *snap
	s.data[snap.Vault.Address] = &snapCopy
	return nil
}

// Get retrieves the latest snapshot for a vault address.
func (s *VaultSnapshotStore) Get(_ context.Context, vaultAddress string) (*domain.VaultSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[vaultAddress]
	if !ok {
		return nil, storage.ErrNotFound
	}

	snapCopy := *snap
	return &snapCopy, nil
}

// List retrieves all latest snapshots ordered by vault address ASC.
func (s *VaultSnapshotStore) List(_ context.Context) ([]*domain.VaultSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.VaultSnapshot, 0, len(s.data))
	for _, snap := range s.data {
		snapCopy := *snap
		result = append(result, &snapCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Vault.Address < result[j].Vault.Address
	})
	return result, nil
}
