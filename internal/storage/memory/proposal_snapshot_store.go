package memory

import (
	"context"
	"sort"
	"sync"

	"vault-recycler/internal/domain"
	"vault-recycler/internal/storage"
)

// ProposalSnapshotStore is an in-memory implementation of
// storage.ProposalSnapshotStore.
type ProposalSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ProposalSnapshot // keyed by proposal address
}

// NewProposalSnapshotStore creates a new in-memory proposal snapshot store.
func NewProposalSnapshotStore() *ProposalSnapshotStore {
	return &ProposalSnapshotStore{
		data: make(map[string]*domain.ProposalSnapshot),
	}
}

// Compile-time interface check.
var _ storage.ProposalSnapshotStore = (*ProposalSnapshotStore)(nil)

// Upsert stores the snapshot unless an equal-or-newer slot is present.
func (s *ProposalSnapshotStore) Upsert(_ context.Context, snap *domain.ProposalSnapshot) error {
	if snap == nil || snap.Proposal.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[snap.Proposal.Address]; ok && existing.Slot > snap.Slot {
		return nil
	}

	snapCopy := *snap
	snapCopy.Proposal.Voters = append([]string(nil), snap.Proposal.Voters...)
	s.data[snap.Proposal.Address] = &snapCopy
	return nil
}

// Get retrieves the latest snapshot for a proposal address.
func (s *ProposalSnapshotStore) Get(_ context.Context, proposalAddress string) (*domain.ProposalSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[proposalAddress]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return copyProposalSnapshot(snap), nil
}

// ListByVault retrieves proposals targeting a vault, ordered by proposal
// address ASC.
func (s *ProposalSnapshotStore) ListByVault(_ context.Context, vaultAddress string) ([]*domain.ProposalSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ProposalSnapshot
	for _, snap := range s.data {
		if snap.Proposal.Vault == vaultAddress {
			result = append(result, copyProposalSnapshot(snap))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Proposal.Address < result[j].Proposal.Address
	})
	return result, nil
}

func copyProposalSnapshot(snap *domain.ProposalSnapshot) *domain.ProposalSnapshot {
	snapCopy := *snap
	snapCopy.Proposal.Voters = append([]string(nil), snap.Proposal.Voters...)
	return &snapCopy
}
