package domain

// VaultSnapshot is a vault view captured at a specific slot. Snapshots
// are best-effort: true as of fetch time only, never authoritative.
type VaultSnapshot struct {
	Vault      Vault
	Slot       int64
	ObservedAt int64 // unix ms
}

// ProposalSnapshot is a proposal view captured at a specific slot.
type ProposalSnapshot struct {
	Proposal   BurnProposal
	Slot       int64
	ObservedAt int64 // unix ms
}

// ActivityKind distinguishes burn-activity rows.
type ActivityKind string

const (
	ActivityDeposit ActivityKind = "DEPOSIT"
	ActivityBurn    ActivityKind = "BURN"
)

// BurnActivity is one observed change to a vault's cumulative totals,
// derived by the indexer from consecutive snapshots.
type BurnActivity struct {
	VaultAddress string
	AssetMint    string
	Kind         ActivityKind
	Amount       uint64
	Slot         int64
	Timestamp    int64 // unix ms
}
