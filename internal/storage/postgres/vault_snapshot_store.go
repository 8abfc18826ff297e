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

// VaultSnapshotStore implements storage.VaultSnapshotStore using PostgreSQL.
type VaultSnapshotStore struct {
	pool *Pool
}

// NewVaultSnapshotStore creates a new VaultSnapshotStore.
func NewVaultSnapshotStore(pool *Pool) *VaultSnapshotStore {
	return &VaultSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VaultSnapshotStore = (*VaultSnapshotStore)(nil)

const vaultSnapshotColumns = `
	vault_address, asset_mint, authority, total_deposited, total_burned,
	status, metadata_uri, created_at, governance_enabled, vote_threshold,
	last_burn_at, slot, observed_at
`

// Upsert stores the snapshot, keeping the newest slot per vault.
func (s *VaultSnapshotStore) Upsert(ctx context.Context, snap *domain.VaultSnapshot) error {
	if snap == nil || snap.Vault.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO vault_snapshots (` + vaultSnapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (vault_address) DO UPDATE SET
			asset_mint = EXCLUDED.asset_mint,
			authority = EXCLUDED.authority,
			total_deposited = EXCLUDED.total_deposited,
			total_burned = EXCLUDED.total_burned,
			status = EXCLUDED.status,
			metadata_uri = EXCLUDED.metadata_uri,
			created_at = EXCLUDED.created_at,
			governance_enabled = EXCLUDED.governance_enabled,
			vote_threshold = EXCLUDED.vote_threshold,
			last_burn_at = EXCLUDED.last_burn_at,
			slot = EXCLUDED.slot,
			observed_at = EXCLUDED.observed_at
		WHERE vault_snapshots.slot <= EXCLUDED.slot
	`

	var voteThreshold *int64
	if snap.Vault.VoteThreshold != nil {
		v := int64(*snap.Vault.VoteThreshold)
		voteThreshold = &v
	}

	start := time.Now()
	_, err := s.pool.Exec(ctx, query,
		snap.Vault.Address,
		snap.Vault.AssetMint,
		snap.Vault.Authority,
		int64(snap.Vault.TotalDeposited),
		int64(snap.Vault.TotalBurned),
		int16(snap.Vault.Status),
		snap.Vault.MetadataURI,
		snap.Vault.CreatedAt,
		snap.Vault.GovernanceEnabled,
		voteThreshold,
		snap.Vault.LastBurnAt,
		snap.Slot,
		snap.ObservedAt,
	)
	observability.RecordDBQuery("postgres", "upsert_vault_snapshot", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("upsert vault snapshot: %w", err)
	}
	return nil
}

// Get retrieves the latest snapshot for a vault address.
func (s *VaultSnapshotStore) Get(ctx context.Context, vaultAddress string) (*domain.VaultSnapshot, error) {
	query := `
		SELECT ` + vaultSnapshotColumns + `
		FROM vault_snapshots
		WHERE vault_address = $1
	`

	start := time.Now()
	row := s.pool.QueryRow(ctx, query, vaultAddress)
	snap, err := scanVaultSnapshot(row)
	observability.RecordDBQuery("postgres", "get_vault_snapshot", time.Since(start).Seconds(), err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get vault snapshot: %w", err)
	}
	return snap, nil
}

// List retrieves every vault snapshot ordered by vault address ASC.
func (s *VaultSnapshotStore) List(ctx context.Context) ([]*domain.VaultSnapshot, error) {
	query := `
		SELECT ` + vaultSnapshotColumns + `
		FROM vault_snapshots
		ORDER BY vault_address ASC
	`

	start := time.Now()
	rows, err := s.pool.Query(ctx, query)
	observability.RecordDBQuery("postgres", "list_vault_snapshots", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("list vault snapshots: %w", err)
	}
	defer rows.Close()

	var result []*domain.VaultSnapshot
	for rows.Next() {
		snap, err := scanVaultSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vault snapshot: %w", err)
		}
		result = append(result, snap)
	}
	return result, rows.Err()
}

func scanVaultSnapshot(row pgx.Row) (*domain.VaultSnapshot, error) {
	var (
		snap          domain.VaultSnapshot
		totalDep      int64
		totalBurned   int64
		status        int16
		voteThreshold *int64
	)

	err := row.Scan(
		&snap.Vault.Address,
		&snap.Vault.AssetMint,
		&snap.Vault.Authority,
		&totalDep,
		&totalBurned,
		&status,
		&snap.Vault.MetadataURI,
		&snap.Vault.CreatedAt,
		&snap.Vault.GovernanceEnabled,
		&voteThreshold,
		&snap.Vault.LastBurnAt,
		&snap.Slot,
		&snap.ObservedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.Vault.TotalDeposited = uint64(totalDep)
	snap.Vault.TotalBurned = uint64(totalBurned)
	snap.Vault.Status = domain.VaultStatus(status)
	if voteThreshold != nil {
		v := uint32(*voteThreshold)
		snap.Vault.VoteThreshold = &v
	}
	return &snap, nil
}
