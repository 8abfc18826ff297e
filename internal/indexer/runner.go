// Package indexer polls the recycling program's accounts and persists
// best-effort snapshots plus a derived burn-activity timeseries.
package indexer

import (
	"context"
	"errors"
	"log"
	"time"

	"vault-recycler/internal/domain"
	"vault-recycler/internal/observability"
	"vault-recycler/internal/reader"
	"vault-recycler/internal/solana"
	"vault-recycler/internal/storage"
)

// Runner drives the periodic refresh loop.
type Runner struct {
	reader        *reader.Reader
	rpc           solana.RPCClient
	ws            solana.WSClient
	vaultStore    storage.VaultSnapshotStore
	proposalStore storage.ProposalSnapshotStore
	activityStore storage.BurnActivityStore
	interval      time.Duration
	logger        *log.Logger
	now           func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Reader        *reader.Reader
	RPC           solana.RPCClient
	WS            solana.WSClient // optional: account updates trigger an early refresh
	VaultStore    storage.VaultSnapshotStore
	ProposalStore storage.ProposalSnapshotStore
	ActivityStore storage.BurnActivityStore // optional
	Interval      time.Duration             // default: 30s
	Logger        *log.Logger
	Now           func() time.Time
}

// NewRunner creates a new indexer runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval == 0 {
		interval = 30 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Runner{
		reader:        opts.Reader,
		rpc:           opts.RPC,
		ws:            opts.WS,
		vaultStore:    opts.VaultStore,
		proposalStore: opts.ProposalStore,
		activityStore: opts.ActivityStore,
		interval:      interval,
		logger:        logger,
		now:           now,
	}
}

// Run starts the refresh loop. It blocks until context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Println("Starting indexer runner...")

	// Optional WS subscription: a program account update kicks an early
	// refresh instead of waiting out the interval.
	var notifications <-chan solana.AccountNotification
	if r.ws != nil {
		var err error
		notifications, err = r.ws.SubscribeProgram(ctx, solana.ProgramFilter{
			ProgramID: r.reader.ProgramID(),
		})
		if err != nil {
			return err
		}
		r.logger.Printf("Subscribed to program account updates: %s", r.reader.ProgramID())
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Printf("Runner started, refresh interval: %v", r.interval)

	// Initial refresh so fresh stores are populated before the first tick.
	r.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Println("Runner stopping...")
			return ctx.Err()

		case _, ok := <-notifications:
			if !ok {
				r.logger.Println("Notification channel closed")
				return errors.New("notification channel closed")
			}
			r.refresh(ctx)
			ticker.Reset(r.interval)

		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// RefreshOnce performs a single refresh cycle.
func (r *Runner) RefreshOnce(ctx context.Context) error {
	return r.refresh(ctx)
}

func (r *Runner) refresh(ctx context.Context) error {
	start := r.now()

	slot, err := r.rpc.GetSlot(ctx)
	if err != nil {
		r.logger.Printf("Error fetching slot: %v", err)
		observability.RecordRefreshError("slot")
		observability.RecordRefreshRun("error", r.now().Sub(start).Seconds())
		return err
	}
	observability.UpdateHighestSlot(slot)

	observedAt := r.now().UnixMilli()

	vaults, err := r.reader.Vaults(ctx)
	if err != nil {
		r.logger.Printf("Error listing vaults: %v", err)
		observability.RecordRefreshError("vaults")
		observability.RecordRefreshRun("error", r.now().Sub(start).Seconds())
		return err
	}

	var failed bool
	for _, vault := range vaults {
		if err := r.refreshVault(ctx, vault, slot, observedAt); err != nil {
			failed = true
		}
	}

	status := "ok"
	if failed {
		status = "partial"
	}
	observability.RecordRefreshRun(status, r.now().Sub(start).Seconds())
	if !failed {
		observability.DefaultMetrics.LastSuccessfulRefresh.Set(float64(r.now().Unix()))
	}
	r.logger.Printf("Refresh complete: %d vaults, slot %d, status %s", len(vaults), slot, status)
	return nil
}

func (r *Runner) refreshVault(ctx context.Context, vault *domain.Vault, slot, observedAt int64) error {
	observability.DefaultMetrics.VaultsRefreshed.Inc()

	r.recordActivity(ctx, vault, slot, observedAt)

	snap := &domain.VaultSnapshot{Vault: *vault, Slot: slot, ObservedAt: observedAt}
	if err := r.vaultStore.Upsert(ctx, snap); err != nil {
		r.logger.Printf("Error storing vault snapshot %s: %v", vault.Address, err)
		observability.RecordRefreshError("vault_store")
		return err
	}
	observability.DefaultMetrics.SnapshotsStored.WithLabelValues("vault").Inc()

	proposals, err := r.reader.ProposalsForVault(ctx, vault.Address)
	if err != nil {
		r.logger.Printf("Error listing proposals for %s: %v", vault.Address, err)
		observability.RecordRefreshError("proposals")
		return err
	}

	for _, p := range proposals {
		observability.DefaultMetrics.ProposalsRefreshed.Inc()
		psnap := &domain.ProposalSnapshot{Proposal: *p, Slot: slot, ObservedAt: observedAt}
		if err := r.proposalStore.Upsert(ctx, psnap); err != nil {
			r.logger.Printf("Error storing proposal snapshot %s: %v", p.Address, err)
			observability.RecordRefreshError("proposal_store")
			return err
		}
		observability.DefaultMetrics.SnapshotsStored.WithLabelValues("proposal").Inc()
	}

	return nil
}

// recordActivity derives DEPOSIT/BURN rows from the change in a vault's
// cumulative totals since the previous snapshot. The first observation
// of a vault establishes the baseline and records nothing.
func (r *Runner) recordActivity(ctx context.Context, vault *domain.Vault, slot, observedAt int64) {
	if r.activityStore == nil {
		return
	}

	prev, err := r.vaultStore.Get(ctx, vault.Address)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Printf("Error loading previous snapshot %s: %v", vault.Address, err)
			observability.RecordRefreshError("activity")
		}
		return
	}
	if prev.Slot >= slot {
		return
	}

	var rows []*domain.BurnActivity
	if vault.TotalDeposited > prev.Vault.TotalDeposited {
		rows = append(rows, &domain.BurnActivity{
			VaultAddress: vault.Address,
			AssetMint:    vault.AssetMint,
			Kind:         domain.ActivityDeposit,
			Amount:       vault.TotalDeposited - prev.Vault.TotalDeposited,
			Slot:         slot,
			Timestamp:    observedAt,
		})
	}
	if vault.TotalBurned > prev.Vault.TotalBurned {
		rows = append(rows, &domain.BurnActivity{
			VaultAddress: vault.Address,
			AssetMint:    vault.AssetMint,
			Kind:         domain.ActivityBurn,
			Amount:       vault.TotalBurned - prev.Vault.TotalBurned,
			Slot:         slot,
			Timestamp:    observedAt,
		})
	}
	if len(rows) == 0 {
		return
	}

	if err := r.activityStore.InsertBulk(ctx, rows); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Re-observation of the same slot, already recorded.
			return
		}
		r.logger.Printf("Error recording activity for %s: %v", vault.Address, err)
		observability.RecordRefreshError("activity")
		return
	}
	for _, row := range rows {
		observability.DefaultMetrics.ActivitiesRecorded.WithLabelValues(string(row.Kind)).Inc()
	}
}
