package domain

// ProtocolConfig is the protocol-wide singleton account. Only the
// authority may mutate it (pause/unpause, fee updates).
type ProtocolConfig struct {
	Address        string // PDA, base58
	Authority      string
	FeeRecipient   string
	FeeBasisPoints uint16 // 1/100 of a percent
	Paused         bool
}
