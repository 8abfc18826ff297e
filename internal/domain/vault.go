package domain

// VaultStatus is the lifecycle status stored in VaultState.
type VaultStatus uint8

const (
	VaultActive VaultStatus = 0
	VaultClosed VaultStatus = 1
)

func (s VaultStatus) String() string {
	switch s {
	case VaultActive:
		return "ACTIVE"
	case VaultClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Vault is the decoded VaultState account for one underlying asset.
type Vault struct {
	Address           string // PDA, base58
	AssetMint         string // mint of the underlying asset
	Authority         string // controlling identity
	TotalDeposited    uint64 // cumulative deposits
	TotalBurned       uint64 // cumulative burns, never exceeds TotalDeposited
	Status            VaultStatus
	MetadataURI       string
	CreatedAt         int64 // unix seconds
	GovernanceEnabled bool
	VoteThreshold     *uint32 // nil means protocol default
	LastBurnAt        *int64  // nil until the first burn
}

// AvailableBalance returns deposits net of burns.
func (v *Vault) AvailableBalance() uint64 {
	if v.TotalBurned > v.TotalDeposited {
		return 0
	}
	return v.TotalDeposited - v.TotalBurned
}
