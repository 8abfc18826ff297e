// Package stub provides in-memory test doubles for the ledger clients.
package stub

import (
	"context"

	"vault-recycler/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	Accounts        map[string]*solana.AccountInfo
	ProgramAccounts map[string][]solana.ProgramAccount
	Slot            int64

	// Errs forces an error for a pubkey or program ID.
	Errs map[string]error
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:        make(map[string]*solana.AccountInfo),
		ProgramAccounts: make(map[string][]solana.ProgramAccount),
		Errs:            make(map[string]error),
	}
}

// GetAccountInfo returns the stubbed account, or nil when absent.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if err, ok := c.Errs[pubkey]; ok {
		return nil, err
	}
	return c.Accounts[pubkey], nil
}

// GetProgramAccounts returns the stubbed program accounts. Filters are
// not applied; callers are expected to tolerate over-broad results the
// same way they tolerate providers that ignore filters.
func (c *RPCClient) GetProgramAccounts(_ context.Context, programID string, _ *solana.ProgramAccountsConfig) ([]solana.ProgramAccount, error) {
	if err, ok := c.Errs[programID]; ok {
		return nil, err
	}
	return c.ProgramAccounts[programID], nil
}

// GetSlot returns the stubbed slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	return c.Slot, nil
}
