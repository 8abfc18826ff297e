// Package storage defines the snapshot persistence interfaces used by
// the indexer. Stores record what the ledger was observed to hold; they
// are never authoritative and never written by the interaction layer
// itself.
package storage

import (
	"context"

	"vault-recycler/internal/domain"
)

// VaultSnapshotStore keeps the latest observed state per vault.
type VaultSnapshotStore interface {
	// Upsert stores the snapshot, replacing any older snapshot for the
	// same vault address. Snapshots from an older slot are ignored.
	Upsert(ctx context.Context, s *domain.VaultSnapshot) error

	// Get retrieves the latest snapshot for a vault address.
	// Returns ErrNotFound if the vault was never observed.
	Get(ctx context.Context, vaultAddress string) (*domain.VaultSnapshot, error)

	// List retrieves the latest snapshot of every observed vault,
	// ordered by vault address ASC.
	List(ctx context.Context) ([]*domain.VaultSnapshot, error)
}

// ProposalSnapshotStore keeps the latest observed state per proposal.
type ProposalSnapshotStore interface {
	// Upsert stores the snapshot, replacing any older snapshot for the
	// same proposal address. Snapshots from an older slot are ignored.
	Upsert(ctx context.Context, s *domain.ProposalSnapshot) error

	// Get retrieves the latest snapshot for a proposal address.
	// Returns ErrNotFound if the proposal was never observed.
	Get(ctx context.Context, proposalAddress string) (*domain.ProposalSnapshot, error)

	// ListByVault retrieves the latest snapshots of all proposals
	// targeting a vault, ordered by proposal address ASC.
	ListByVault(ctx context.Context, vaultAddress string) ([]*domain.ProposalSnapshot, error)
}

// BurnActivityStore is the append-only history of observed vault total
// changes, used for activity timeseries.
type BurnActivityStore interface {
	// InsertBulk appends activity rows. Returns ErrDuplicateKey when a
	// (vault, kind, slot) row already exists; the batch fails whole.
	InsertBulk(ctx context.Context, rows []*domain.BurnActivity) error

	// GetByVault retrieves all activity for a vault, ordered by
	// timestamp ASC.
	GetByVault(ctx context.Context, vaultAddress string) ([]*domain.BurnActivity, error)

	// GetByVaultTimeRange retrieves activity for a vault within
	// [start, end) in unix ms.
	GetByVaultTimeRange(ctx context.Context, vaultAddress string, start, end int64) ([]*domain.BurnActivity, error)
}
