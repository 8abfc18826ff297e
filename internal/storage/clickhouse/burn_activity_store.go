package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"vault-recycler/internal/domain"
	"vault-recycler/internal/observability"
	"vault-recycler/internal/storage"
)

// BurnActivityStore implements storage.BurnActivityStore using ClickHouse.
type BurnActivityStore struct {
	conn *Conn
}

// NewBurnActivityStore creates a new BurnActivityStore.
func NewBurnActivityStore(conn *Conn) *BurnActivityStore {
	return &BurnActivityStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BurnActivityStore = (*BurnActivityStore)(nil)

// InsertBulk appends activity rows. ClickHouse has no unique constraint,
// so duplicates are detected against both the batch and existing rows
// before the batch is sent.
func (s *BurnActivityStore) InsertBulk(ctx context.Context, rows []*domain.BurnActivity) error {
	if len(rows) == 0 {
		return nil
	}

	type key struct {
		vault string
		kind  domain.ActivityKind
		slot  int64
	}
	seen := make(map[key]struct{}, len(rows))
	for _, row := range rows {
		if row == nil || row.VaultAddress == "" {
			return storage.ErrInvalidInput
		}
		k := key{row.VaultAddress, row.Kind, row.Slot}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, row := range rows {
		exists, err := s.exists(ctx, row.VaultAddress, row.Kind, row.Slot)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO burn_activity (
			vault_address, asset_mint, kind, amount, slot, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range rows {
		err = batch.Append(
			row.VaultAddress, row.AssetMint, string(row.Kind),
			row.Amount, row.Slot, uint64(row.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	start := time.Now()
	err = batch.Send()
	observability.RecordDBQuery("clickhouse", "insert_burn_activity", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

func (s *BurnActivityStore) exists(ctx context.Context, vault string, kind domain.ActivityKind, slot int64) (bool, error) {
	query := `
		SELECT count() FROM burn_activity
		WHERE vault_address = ? AND kind = ? AND slot = ?
	`
	var count uint64
	if err := s.conn.QueryRow(ctx, query, vault, string(kind), slot).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByVault retrieves all activity for a vault, ordered by timestamp ASC.
func (s *BurnActivityStore) GetByVault(ctx context.Context, vaultAddress string) ([]*domain.BurnActivity, error) {
	query := `
		SELECT vault_address, asset_mint, kind, amount, slot, timestamp_ms
		FROM burn_activity
		WHERE vault_address = ?
		ORDER BY timestamp_ms ASC, slot ASC
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, vaultAddress)
	observability.RecordDBQuery("clickhouse", "get_burn_activity", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query by vault: %w", err)
	}
	defer rows.Close()

	return scanActivity(rows)
}

// GetByVaultTimeRange retrieves activity within [start, end) in unix ms.
func (s *BurnActivityStore) GetByVaultTimeRange(ctx context.Context, vaultAddress string, start, end int64) ([]*domain.BurnActivity, error) {
	query := `
		SELECT vault_address, asset_mint, kind, amount, slot, timestamp_ms
		FROM burn_activity
		WHERE vault_address = ? AND timestamp_ms >= ? AND timestamp_ms < ?
		ORDER BY timestamp_ms ASC, slot ASC
	`

	began := time.Now()
	rows, err := s.conn.Query(ctx, query, vaultAddress, uint64(start), uint64(end))
	observability.RecordDBQuery("clickhouse", "get_burn_activity_range", time.Since(began).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query by vault time range: %w", err)
	}
	defer rows.Close()

	return scanActivity(rows)
}

func scanActivity(rows driver.Rows) ([]*domain.BurnActivity, error) {
	var result []*domain.BurnActivity
	for rows.Next() {
		var (
			row         domain.BurnActivity
			kind        string
			timestampMs uint64
		)
		if err := rows.Scan(&row.VaultAddress, &row.AssetMint, &kind, &row.Amount, &row.Slot, &timestampMs); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		row.Kind = domain.ActivityKind(kind)
		row.Timestamp = int64(timestampMs)
		result = append(result, &row)
	}
	return result, rows.Err()
}
