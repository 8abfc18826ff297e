// Package reader performs read-only queries against the ledger and
// normalizes raw account bytes into typed entities. Every result is a
// best-effort snapshot, true as of fetch time only.
package reader

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"vault-recycler/internal/domain"
	"vault-recycler/internal/instruction"
	"vault-recycler/internal/pda"
	"vault-recycler/internal/solana"
)

// ErrNotFound is returned when the requested account does not exist on
// the ledger yet. This is an expected condition, distinct from I/O or
// deserialization failures.
var ErrNotFound = errors.New("account not found")

// Reader fetches and decodes recycler program accounts.
type Reader struct {
	rpc       solana.RPCClient
	programID string
}

// NewReader creates a Reader. An empty programID selects the default
// deployment.
func NewReader(rpc solana.RPCClient, programID string) *Reader {
	if programID == "" {
		programID = instruction.DefaultProgramID
	}
	return &Reader{rpc: rpc, programID: programID}
}

// ProgramID returns the program this reader queries.
func (r *Reader) ProgramID() string {
	return r.programID
}

// fetchRaw fetches one account and returns its decoded data bytes.
func (r *Reader) fetchRaw(ctx context.Context, address string) ([]byte, error) {
	info, err := r.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch account %s: %w", address, err)
	}
	if info == nil {
		return nil, ErrNotFound
	}
	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode account %s data: %w", address, err)
	}
	return data, nil
}

// Vault fetches the vault for an asset mint.
func (r *Reader) Vault(ctx context.Context, assetMint string) (*domain.Vault, error) {
	addr, _, err := pda.VaultAddress(assetMint, r.programID)
	if err != nil {
		return nil, err
	}
	data, err := r.fetchRaw(ctx, addr)
	if err != nil {
		return nil, err
	}
	return decodeVault(addr, data)
}

// Vaults lists every vault owned by the program.
func (r *Reader) Vaults(ctx context.Context) ([]*domain.Vault, error) {
	accounts, err := r.programAccounts(ctx, vaultDiscriminator, nil)
	if err != nil {
		return nil, err
	}

	vaults := make([]*domain.Vault, 0, len(accounts))
	for _, acct := range accounts {
		v, err := decodeVault(acct.pubkey, acct.data)
		if err != nil {
			// Skip foreign or corrupt accounts the filter let through.
			continue
		}
		vaults = append(vaults, v)
	}
	return vaults, nil
}

// Contribution fetches the user's contribution record for an asset.
func (r *Reader) Contribution(ctx context.Context, assetMint, user string) (*domain.UserContribution, error) {
	addr, _, err := pda.ContributionAddress(assetMint, user, r.programID)
	if err != nil {
		return nil, err
	}
	data, err := r.fetchRaw(ctx, addr)
	if err != nil {
		return nil, err
	}
	return decodeContribution(addr, data)
}

// Certificate fetches the user's certificate for an asset.
func (r *Reader) Certificate(ctx context.Context, assetMint, user string) (*domain.Certificate, error) {
	addr, _, err := pda.CertificateAddress(assetMint, user, r.programID)
	if err != nil {
		return nil, err
	}
	data, err := r.fetchRaw(ctx, addr)
	if err != nil {
		return nil, err
	}
	return decodeCertificate(addr, data)
}

// Config fetches the protocol config singleton. Callers treat NotFound
// as "not bootstrapped yet" and assume zero fee.
func (r *Reader) Config(ctx context.Context) (*domain.ProtocolConfig, error) {
	addr, _, err := pda.ConfigAddress(r.programID)
	if err != nil {
		return nil, err
	}
	data, err := r.fetchRaw(ctx, addr)
	if err != nil {
		return nil, err
	}
	return decodeConfig(addr, data)
}

// Proposal fetches the proposal for a (vault, proposer) pair.
func (r *Reader) Proposal(ctx context.Context, vaultAddress, proposer string) (*domain.BurnProposal, error) {
	addr, _, err := pda.ProposalAddress(vaultAddress, proposer, r.programID)
	if err != nil {
		return nil, err
	}
	data, err := r.fetchRaw(ctx, addr)
	if err != nil {
		return nil, err
	}
	return decodeProposal(addr, data)
}

// ProposalsForVault lists every proposal targeting the vault. The ledger
// filter narrows by discriminator and the vault key at offset 8; results
// are re-checked client-side in case the provider ignores filters.
func (r *Reader) ProposalsForVault(ctx context.Context, vaultAddress string) ([]*domain.BurnProposal, error) {
	accounts, err := r.programAccounts(ctx, proposalDiscriminator, &memcmpSpec{offset: 8, pubkey: vaultAddress})
	if err != nil {
		return nil, err
	}

	proposals := make([]*domain.BurnProposal, 0, len(accounts))
	for _, acct := range accounts {
		p, err := decodeProposal(acct.pubkey, acct.data)
		if err != nil {
			continue
		}
		if p.Vault != vaultAddress {
			continue
		}
		proposals = append(proposals, p)
	}
	return proposals, nil
}

type rawAccount struct {
	pubkey string
	data   []byte
}

type memcmpSpec struct {
	offset uint64
	pubkey string
}

// programAccounts queries accounts by discriminator plus an optional
// second memcmp, decoding the base64 payloads.
func (r *Reader) programAccounts(ctx context.Context, disc []byte, extra *memcmpSpec) ([]rawAccount, error) {
	cfg := &solana.ProgramAccountsConfig{
		Filters: []solana.AccountFilter{
			{Memcmp: &solana.MemcmpFilter{Offset: 0, Bytes: encodeBase58(disc)}},
		},
	}
	if extra != nil {
		cfg.Filters = append(cfg.Filters, solana.AccountFilter{
			Memcmp: &solana.MemcmpFilter{Offset: extra.offset, Bytes: extra.pubkey},
		})
	}

	accounts, err := r.rpc.GetProgramAccounts(ctx, r.programID, cfg)
	if err != nil {
		return nil, fmt.Errorf("list program accounts: %w", err)
	}

	raw := make([]rawAccount, 0, len(accounts))
	for _, acct := range accounts {
		data, err := base64.StdEncoding.DecodeString(acct.Account.Data)
		if err != nil {
			return nil, fmt.Errorf("decode account %s data: %w", acct.Pubkey, err)
		}
		raw = append(raw, rawAccount{pubkey: acct.Pubkey, data: data})
	}
	return raw, nil
}
