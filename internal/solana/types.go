package solana

// AccountInfo represents ledger account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// ProgramAccount is one entry from getProgramAccounts.
type ProgramAccount struct {
	Pubkey  string
	Account AccountInfo
}

// ProgramAccountsConfig narrows a getProgramAccounts query.
type ProgramAccountsConfig struct {
	Filters []AccountFilter
}

// AccountFilter is one getProgramAccounts filter. Exactly one field is set.
type AccountFilter struct {
	Memcmp   *MemcmpFilter
	DataSize *uint64
}

// MemcmpFilter matches accounts whose data at Offset equals Bytes.
type MemcmpFilter struct {
	Offset uint64
	Bytes  string // base58 encoded
}

// Blockhash is the result of getLatestBlockhash, needed by callers
// assembling a transaction around built instructions.
type Blockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}
