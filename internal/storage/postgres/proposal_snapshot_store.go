package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"vault-recycler/internal/domain"
	"vault-recycler/internal/observability"
	"vault-recycler/internal/storage"
)

// ProposalSnapshotStore implements storage.ProposalSnapshotStore using
// PostgreSQL.
type ProposalSnapshotStore struct {
	pool *Pool
}

// NewProposalSnapshotStore creates a new ProposalSnapshotStore.
func NewProposalSnapshotStore(pool *Pool) *ProposalSnapshotStore {
	return &ProposalSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProposalSnapshotStore = (*ProposalSnapshotStore)(nil)

const proposalSnapshotColumns = `
	proposal_address, vault_address, proposer, amount, vote_count, voters,
	created_at, executed_at, status, slot, observed_at
`

// Upsert stores the snapshot, keeping the newest slot per proposal.
func (s *ProposalSnapshotStore) Upsert(ctx context.Context, snap *domain.ProposalSnapshot) error {
	if snap == nil || snap.Proposal.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO proposal_snapshots (` + proposalSnapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (proposal_address) DO UPDATE SET
			vault_address = EXCLUDED.vault_address,
			proposer = EXCLUDED.proposer,
			amount = EXCLUDED.amount,
			vote_count = EXCLUDED.vote_count,
			voters = EXCLUDED.voters,
			created_at = EXCLUDED.created_at,
			executed_at = EXCLUDED.executed_at,
			status = EXCLUDED.status,
			slot = EXCLUDED.slot,
			observed_at = EXCLUDED.observed_at
		WHERE proposal_snapshots.slot <= EXCLUDED.slot
	`

	voters := snap.Proposal.Voters
	if voters == nil {
		voters = []string{}
	}

	start := time.Now()
	_, err := s.pool.Exec(ctx, query,
		snap.Proposal.Address,
		snap.Proposal.Vault,
		snap.Proposal.Proposer,
		int64(snap.Proposal.Amount),
		int64(snap.Proposal.VoteCount),
		voters,
		snap.Proposal.CreatedAt,
		snap.Proposal.ExecutedAt,
		int16(snap.Proposal.Status),
		snap.Slot,
		snap.ObservedAt,
	)
	observability.RecordDBQuery("postgres", "upsert_proposal_snapshot", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("upsert proposal snapshot: %w", err)
	}
	return nil
}

// Get retrieves the latest snapshot for a proposal address.
func (s *ProposalSnapshotStore) Get(ctx context.Context, proposalAddress string) (*domain.ProposalSnapshot, error) {
	query := `
		SELECT ` + proposalSnapshotColumns + `
		FROM proposal_snapshots
		WHERE proposal_address = $1
	`

	start := time.Now()
	row := s.pool.QueryRow(ctx, query, proposalAddress)
	snap, err := scanProposalSnapshot(row)
	observability.RecordDBQuery("postgres", "get_proposal_snapshot", time.Since(start).Seconds(), err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get proposal snapshot: %w", err)
	}
	return snap, nil
}

// ListByVault retrieves proposals targeting a vault, ordered by proposal
// address ASC.
func (s *ProposalSnapshotStore) ListByVault(ctx context.Context, vaultAddress string) ([]*domain.ProposalSnapshot, error) {
	query := `
		SELECT ` + proposalSnapshotColumns + `
		FROM proposal_snapshots
		WHERE vault_address = $1
		ORDER BY proposal_address ASC
	`

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, vaultAddress)
	observability.RecordDBQuery("postgres", "list_proposal_snapshots", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("list proposal snapshots: %w", err)
	}
	defer rows.Close()

	var result []*domain.ProposalSnapshot
	for rows.Next() {
		snap, err := scanProposalSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal snapshot: %w", err)
		}
		result = append(result, snap)
	}
	return result, rows.Err()
}

func scanProposalSnapshot(row pgx.Row) (*domain.ProposalSnapshot, error) {
	var (
		snap      domain.ProposalSnapshot
		amount    int64
		voteCount int64
		status    int16
	)

	err := row.Scan(
		&snap.Proposal.Address,
		&snap.Proposal.Vault,
		&snap.Proposal.Proposer,
		&amount,
		&voteCount,
		&snap.Proposal.Voters,
		&snap.Proposal.CreatedAt,
		&snap.Proposal.ExecutedAt,
		&status,
		&snap.Slot,
		&snap.ObservedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.Proposal.Amount = uint64(amount)
	snap.Proposal.VoteCount = uint32(voteCount)
	snap.Proposal.Status = domain.ProposalStatus(status)
	return &snap, nil
}
