package domain

// UserContribution tracks one (asset, user) pair. Created lazily on the
// first deposit; totals only ever grow.
type UserContribution struct {
	Address         string // PDA, base58
	User            string
	AssetMint       string
	AmountDeposited uint64
	AmountBurned    uint64
	UpdatedAt       int64 // unix seconds
}
