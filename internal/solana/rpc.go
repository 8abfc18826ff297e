package solana

import "context"

// RPCClient defines the ledger JSON-RPC read interface used by the
// recycler client. All calls are single-shot reads; staleness between
// calls is expected and tolerated.
type RPCClient interface {
	// GetAccountInfo retrieves account info by public key.
	// Returns nil (no error) when the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetProgramAccounts retrieves all accounts owned by a program,
	// optionally narrowed by filters.
	GetProgramAccounts(ctx context.Context, programID string, cfg *ProgramAccountsConfig) ([]ProgramAccount, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)
}
