package indexer

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"vault-recycler/internal/domain"
	"vault-recycler/internal/pda"
	"vault-recycler/internal/reader"
	"vault-recycler/internal/solana"
	"vault-recycler/internal/solana/stub"
	"vault-recycler/internal/storage/memory"
)

const (
	testProgramID = "EydBxtu5e4mNEEnCYAxNdzFmRjN2wUTiWuHfkYDRfABA"
	testMint      = "8iLT3v3piVujPRCUSFKUYLuRtUwYeCPg5j2xDhGusXRo"
	testUser      = "5Ybqn2iTzqt6MLzAxG9QpRZeJP2EQxqkYzGsYoZNe6wA"
	testAuthority = "AGrfKw9RyCWMCy66DESGAzHzihHAW14YeFLKDxjoXdaG"
)

type testEnv struct {
	rpc       *stub.RPCClient
	runner    *Runner
	vaults    *memory.VaultSnapshotStore
	proposals *memory.ProposalSnapshotStore
	activity  *memory.BurnActivityStore
	clock     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	rpc := stub.NewRPCClient()
	env := &testEnv{
		rpc:       rpc,
		vaults:    memory.NewVaultSnapshotStore(),
		proposals: memory.NewProposalSnapshotStore(),
		activity:  memory.NewBurnActivityStore(),
		clock:     time.UnixMilli(1700000000000),
	}

	env.runner = NewRunner(RunnerOptions{
		Reader:        reader.NewReader(rpc, testProgramID),
		RPC:           rpc,
		VaultStore:    env.vaults,
		ProposalStore: env.proposals,
		ActivityStore: env.activity,
		Now:           func() time.Time { return env.clock },
	})
	return env
}

// setVault publishes the vault as a program account in the stub.
func (e *testEnv) setVault(t *testing.T, v *domain.Vault) {
	t.Helper()

	data, err := reader.EncodeVault(v)
	if err != nil {
		t.Fatalf("EncodeVault: %v", err)
	}

	accounts := e.rpc.ProgramAccounts[testProgramID]
	encoded := base64.StdEncoding.EncodeToString(data)
	for i, acct := range accounts {
		if acct.Pubkey == v.Address {
			accounts[i].Account.Data = encoded
			return
		}
	}
	e.rpc.ProgramAccounts[testProgramID] = append(accounts, solana.ProgramAccount{
		Pubkey:  v.Address,
		Account: solana.AccountInfo{Data: encoded, Owner: testProgramID},
	})
}

func (e *testEnv) setProposal(t *testing.T, p *domain.BurnProposal) {
	t.Helper()

	data, err := reader.EncodeProposal(p)
	if err != nil {
		t.Fatalf("EncodeProposal: %v", err)
	}
	e.rpc.ProgramAccounts[testProgramID] = append(e.rpc.ProgramAccounts[testProgramID], solana.ProgramAccount{
		Pubkey:  p.Address,
		Account: solana.AccountInfo{Data: base64.StdEncoding.EncodeToString(data), Owner: testProgramID},
	})
}

func testVault(t *testing.T) *domain.Vault {
	t.Helper()

	addr, _, err := pda.VaultAddress(testMint, testProgramID)
	if err != nil {
		t.Fatalf("VaultAddress: %v", err)
	}
	return &domain.Vault{
		Address:        addr,
		AssetMint:      testMint,
		Authority:      testAuthority,
		TotalDeposited: 5000,
		TotalBurned:    1000,
		Status:         domain.VaultActive,
		MetadataURI:    "ipfs://meta",
		CreatedAt:      1690000000,
	}
}

func TestRefreshOnceStoresSnapshots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vault := testVault(t)
	env.setVault(t, vault)

	propAddr, _, err := pda.ProposalAddress(vault.Address, testUser, testProgramID)
	if err != nil {
		t.Fatalf("ProposalAddress: %v", err)
	}
	env.setProposal(t, &domain.BurnProposal{
		Address:   propAddr,
		Vault:     vault.Address,
		Proposer:  testUser,
		Amount:    700,
		VoteCount: 1,
		Voters:    []string{testUser},
		CreatedAt: 1690001000,
		Status:    domain.ProposalPending,
	})

	env.rpc.Slot = 100
	if err := env.runner.RefreshOnce(ctx); err != nil {
		t.Fatalf("RefreshOnce: %v", err)
	}

	snap, err := env.vaults.Get(ctx, vault.Address)
	if err != nil {
		t.Fatalf("Get vault snapshot: %v", err)
	}
	if snap.Slot != 100 {
		t.Errorf("snapshot slot = %d, want 100", snap.Slot)
	}
	if snap.ObservedAt != env.clock.UnixMilli() {
		t.Errorf("observed at = %d, want %d", snap.ObservedAt, env.clock.UnixMilli())
	}
	if snap.Vault.TotalDeposited != 5000 {
		t.Errorf("total deposited = %d, want 5000", snap.Vault.TotalDeposited)
	}

	psnaps, err := env.proposals.ListByVault(ctx, vault.Address)
	if err != nil {
		t.Fatalf("ListByVault: %v", err)
	}
	if len(psnaps) != 1 {
		t.Fatalf("got %d proposal snapshots, want 1", len(psnaps))
	}
	if psnaps[0].Proposal.Amount != 700 {
		t.Errorf("proposal amount = %d, want 700", psnaps[0].Proposal.Amount)
	}
	if psnaps[0].Slot != 100 {
		t.Errorf("proposal slot = %d, want 100", psnaps[0].Slot)
	}
}

func TestFirstObservationRecordsNoActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vault := testVault(t)
	env.setVault(t, vault)
	env.rpc.Slot = 100

	if err := env.runner.RefreshOnce(ctx); err != nil {
		t.Fatalf("RefreshOnce: %v", err)
	}

	rows, err := env.activity.GetByVault(ctx, vault.Address)
	if err != nil {
		t.Fatalf("GetByVault: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d activity rows on first observation, want 0", len(rows))
	}
}

func TestActivityDerivedFromTotalDeltas(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vault := testVault(t)
	env.setVault(t, vault)
	env.rpc.Slot = 100
	if err := env.runner.RefreshOnce(ctx); err != nil {
		t.Fatalf("baseline refresh: %v", err)
	}

	// Totals grow between observations.
	vault.TotalDeposited = 5600
	vault.TotalBurned = 1250
	env.setVault(t, vault)
	env.rpc.Slot = 110
	env.clock = env.clock.Add(30 * time.Second)

	if err := env.runner.RefreshOnce(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	rows, err := env.activity.GetByVault(ctx, vault.Address)
	if err != nil {
		t.Fatalf("GetByVault: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d activity rows, want 2", len(rows))
	}

	byKind := make(map[domain.ActivityKind]*domain.BurnActivity)
	for _, row := range rows {
		byKind[row.Kind] = row
	}

	dep := byKind[domain.ActivityDeposit]
	if dep == nil {
		t.Fatal("missing DEPOSIT row")
	}
	if dep.Amount != 600 {
		t.Errorf("deposit amount = %d, want 600", dep.Amount)
	}
	if dep.Slot != 110 {
		t.Errorf("deposit slot = %d, want 110", dep.Slot)
	}
	if dep.Timestamp != env.clock.UnixMilli() {
		t.Errorf("deposit timestamp = %d, want %d", dep.Timestamp, env.clock.UnixMilli())
	}
	if dep.AssetMint != testMint {
		t.Errorf("deposit mint = %q, want %q", dep.AssetMint, testMint)
	}

	burn := byKind[domain.ActivityBurn]
	if burn == nil {
		t.Fatal("missing BURN row")
	}
	if burn.Amount != 250 {
		t.Errorf("burn amount = %d, want 250", burn.Amount)
	}
}

func TestUnchangedVaultRecordsNoActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vault := testVault(t)
	env.setVault(t, vault)
	env.rpc.Slot = 100
	if err := env.runner.RefreshOnce(ctx); err != nil {
		t.Fatalf("baseline refresh: %v", err)
	}

	env.rpc.Slot = 110
	if err := env.runner.RefreshOnce(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	rows, err := env.activity.GetByVault(ctx, vault.Address)
	if err != nil {
		t.Fatalf("GetByVault: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d activity rows for unchanged vault, want 0", len(rows))
	}
}

func TestStaleSlotSkipsActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	vault := testVault(t)
	env.setVault(t, vault)
	env.rpc.Slot = 100
	if err := env.runner.RefreshOnce(ctx); err != nil {
		t.Fatalf("baseline refresh: %v", err)
	}

	// Re-observation at the same slot must not produce rows even when
	// the account data changed.
	vault.TotalDeposited = 9000
	env.setVault(t, vault)
	if err := env.runner.RefreshOnce(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	rows, err := env.activity.GetByVault(ctx, vault.Address)
	if err != nil {
		t.Fatalf("GetByVault: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d activity rows at stale slot, want 0", len(rows))
	}
}

func TestRefreshWithoutActivityStore(t *testing.T) {
	env := newTestEnv(t)
	env.runner.activityStore = nil
	ctx := context.Background()

	vault := testVault(t)
	env.setVault(t, vault)
	env.rpc.Slot = 100

	if err := env.runner.RefreshOnce(ctx); err != nil {
		t.Fatalf("RefreshOnce: %v", err)
	}

	if _, err := env.vaults.Get(ctx, vault.Address); err != nil {
		t.Fatalf("Get vault snapshot: %v", err)
	}
}

func TestRefreshPropagatesVaultListError(t *testing.T) {
	env := newTestEnv(t)
	env.rpc.Errs[testProgramID] = errors.New("rpc unavailable")

	if err := env.runner.RefreshOnce(context.Background()); err == nil {
		t.Error("expected error when listing vaults fails")
	}
}

// fakeWS delivers notifications from a test-controlled channel.
type fakeWS struct {
	ch chan solana.AccountNotification
}

func (f *fakeWS) SubscribeProgram(context.Context, solana.ProgramFilter) (<-chan solana.AccountNotification, error) {
	return f.ch, nil
}

func (f *fakeWS) Close() error { return nil }

func TestRunRefreshesOnNotification(t *testing.T) {
	env := newTestEnv(t)
	ws := &fakeWS{ch: make(chan solana.AccountNotification, 1)}
	env.runner.ws = ws
	env.runner.interval = time.Hour

	vault := testVault(t)
	env.setVault(t, vault)
	env.rpc.Slot = 100

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.runner.Run(ctx) }()

	// Initial refresh establishes the baseline snapshot.
	waitFor(t, func() bool {
		_, err := env.vaults.Get(context.Background(), vault.Address)
		return err == nil
	})

	// A notification kicks a refresh without waiting for the ticker.
	vault.TotalDeposited = 6000
	env.setVault(t, vault)
	env.rpc.Slot = 120
	ws.ch <- solana.AccountNotification{Pubkey: vault.Address, Slot: 120}

	waitFor(t, func() bool {
		snap, err := env.vaults.Get(context.Background(), vault.Address)
		return err == nil && snap.Slot == 120
	})

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunStopsWhenNotificationChannelCloses(t *testing.T) {
	env := newTestEnv(t)
	ws := &fakeWS{ch: make(chan solana.AccountNotification)}
	env.runner.ws = ws
	env.runner.interval = time.Hour

	done := make(chan error, 1)
	go func() { done <- env.runner.Run(context.Background()) }()

	close(ws.ch)

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected error when notification channel closes")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after channel close")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
