package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-recycler/internal/domain"
	"vault-recycler/internal/storage"
)

func testProposalSnapshot(address, vault string, slot int64) *domain.ProposalSnapshot {
	return &domain.ProposalSnapshot{
		Proposal: domain.BurnProposal{
			Address:   address,
			Vault:     vault,
			Proposer:  "5Ybqn2iTzqt6MLzAxG9QpRZeJP2EQxqkYzGsYoZNe6wA",
			Amount:    750,
			VoteCount: 2,
			Voters: []string{
				"5Ybqn2iTzqt6MLzAxG9QpRZeJP2EQxqkYzGsYoZNe6wA",
				"iBaUWeAX4dKEdjiuLydmRBaKbsgNfVchgUTkZf9gqqG",
			},
			CreatedAt: 1700000500,
			Status:    domain.ProposalPending,
		},
		Slot:       slot,
		ObservedAt: 1700000500000,
	}
}

func TestProposalSnapshotStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProposalSnapshotStore(pool)

	snap := testProposalSnapshot("Proposal1", "Vault1", 100)
	require.NoError(t, store.Upsert(ctx, snap))

	got, err := store.Get(ctx, "Proposal1")
	require.NoError(t, err)

	assert.Equal(t, snap.Proposal.Address, got.Proposal.Address)
	assert.Equal(t, snap.Proposal.Vault, got.Proposal.Vault)
	assert.Equal(t, snap.Proposal.Proposer, got.Proposal.Proposer)
	assert.Equal(t, snap.Proposal.Amount, got.Proposal.Amount)
	assert.Equal(t, snap.Proposal.VoteCount, got.Proposal.VoteCount)
	assert.Equal(t, snap.Proposal.Voters, got.Proposal.Voters)
	assert.Equal(t, snap.Proposal.CreatedAt, got.Proposal.CreatedAt)
	assert.Nil(t, got.Proposal.ExecutedAt)
	assert.Equal(t, domain.ProposalPending, got.Proposal.Status)
	assert.Equal(t, snap.Slot, got.Slot)
	assert.Equal(t, snap.ObservedAt, got.ObservedAt)
}

func TestProposalSnapshotStore_ExecutedProposal(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProposalSnapshotStore(pool)

	snap := testProposalSnapshot("ProposalExec", "Vault1", 100)
	snap.Proposal.Status = domain.ProposalExecuted
	snap.Proposal.ExecutedAt = ptr(int64(1700002000))
	require.NoError(t, store.Upsert(ctx, snap))

	got, err := store.Get(ctx, "ProposalExec")
	require.NoError(t, err)

	assert.Equal(t, domain.ProposalExecuted, got.Proposal.Status)
	require.NotNil(t, got.Proposal.ExecutedAt)
	assert.Equal(t, int64(1700002000), *got.Proposal.ExecutedAt)
}

func TestProposalSnapshotStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewProposalSnapshotStore(pool)

	_, err := store.Get(context.Background(), "MissingProposal")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProposalSnapshotStore_EmptyVoters(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProposalSnapshotStore(pool)

	snap := testProposalSnapshot("ProposalNoVotes", "Vault1", 100)
	snap.Proposal.VoteCount = 0
	snap.Proposal.Voters = nil
	require.NoError(t, store.Upsert(ctx, snap))

	got, err := store.Get(ctx, "ProposalNoVotes")
	require.NoError(t, err)
	assert.Empty(t, got.Proposal.Voters)
}

func TestProposalSnapshotStore_NewerSlotWins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProposalSnapshotStore(pool)

	require.NoError(t, store.Upsert(ctx, testProposalSnapshot("ProposalSlots", "Vault1", 100)))

	newer := testProposalSnapshot("ProposalSlots", "Vault1", 200)
	newer.Proposal.VoteCount = 3
	newer.Proposal.Voters = append(newer.Proposal.Voters, "DGf17gmojMUEZqN6pdwqsTe9ZAvsQnzgS9MwHt3YL8Kr")
	require.NoError(t, store.Upsert(ctx, newer))

	stale := testProposalSnapshot("ProposalSlots", "Vault1", 150)
	stale.Proposal.VoteCount = 1
	require.NoError(t, store.Upsert(ctx, stale))

	got, err := store.Get(ctx, "ProposalSlots")
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.Slot)
	assert.Equal(t, uint32(3), got.Proposal.VoteCount)
	assert.Len(t, got.Proposal.Voters, 3)
}

func TestProposalSnapshotStore_ListByVault(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProposalSnapshotStore(pool)

	require.NoError(t, store.Upsert(ctx, testProposalSnapshot("ProposalB", "VaultX", 10)))
	require.NoError(t, store.Upsert(ctx, testProposalSnapshot("ProposalA", "VaultX", 10)))
	require.NoError(t, store.Upsert(ctx, testProposalSnapshot("ProposalC", "VaultY", 10)))

	list, err := store.ListByVault(ctx, "VaultX")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "ProposalA", list[0].Proposal.Address)
	assert.Equal(t, "ProposalB", list[1].Proposal.Address)

	empty, err := store.ListByVault(ctx, "VaultZ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProposalSnapshotStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewProposalSnapshotStore(pool)

	assert.ErrorIs(t, store.Upsert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Upsert(ctx, &domain.ProposalSnapshot{}), storage.ErrInvalidInput)
}
