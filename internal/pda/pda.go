// Package pda derives the program's deterministic account addresses.
// Derivation is pure: one seed tuple always maps to one address.
package pda

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Seed tags, one per account kind.
const (
	SeedVault          = "vault"
	SeedVaultAuthority = "vault_authority"
	SeedContribution   = "contribution"
	SeedCertificate    = "certificate"
	SeedProtocolConfig = "protocol_config"
	SeedBurnProposal   = "burn_proposal"
)

// MaxSeedLen is the ledger's per-seed length limit.
const MaxSeedLen = 32

const derivationMarker = "ProgramDerivedAddress"

// FindProgramAddress derives the address for a seed tuple under programID.
// It searches bump seeds 255..0 for the first hash that is not a valid
// ed25519 curve point and returns the base58 address with the bump used.
// The only failure modes are malformed input: an invalid program ID or an
// over-length seed.
func FindProgramAddress(seeds [][]byte, programID string) (string, uint8, error) {
	program, err := base58.Decode(programID)
	if err != nil {
		return "", 0, fmt.Errorf("decode program id %q: %w", programID, err)
	}
	if len(program) != 32 {
		return "", 0, fmt.Errorf("program id %q: expected 32 bytes, got %d", programID, len(program))
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return "", 0, fmt.Errorf("seed %d exceeds %d bytes", i, MaxSeedLen)
		}
	}

	for bump := 255; bump >= 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, byte(bump))
		data = append(data, program...)
		data = append(data, derivationMarker...)

		hash := sha256.Sum256(data)
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), uint8(bump), nil
		}
	}

	return "", 0, fmt.Errorf("no viable bump seed for program %s", programID)
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

func pubkeySeed(pubkey string) ([]byte, error) {
	raw, err := base58.Decode(pubkey)
	if err != nil {
		return nil, fmt.Errorf("decode pubkey %q: %w", pubkey, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("pubkey %q: expected 32 bytes, got %d", pubkey, len(raw))
	}
	return raw, nil
}

// VaultAddress derives the VaultState address for an asset mint.
func VaultAddress(assetMint, programID string) (string, uint8, error) {
	mint, err := pubkeySeed(assetMint)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(SeedVault), mint}, programID)
}

// VaultAuthorityAddress derives the vault's token authority address.
func VaultAuthorityAddress(assetMint, programID string) (string, uint8, error) {
	mint, err := pubkeySeed(assetMint)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(SeedVaultAuthority), mint}, programID)
}

// ContributionAddress derives the UserContribution address for an
// (asset, user) pair.
func ContributionAddress(assetMint, user, programID string) (string, uint8, error) {
	mint, err := pubkeySeed(assetMint)
	if err != nil {
		return "", 0, err
	}
	userKey, err := pubkeySeed(user)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(SeedContribution), mint, userKey}, programID)
}

// CertificateAddress derives the Certificate address for an (asset, user) pair.
func CertificateAddress(assetMint, user, programID string) (string, uint8, error) {
	mint, err := pubkeySeed(assetMint)
	if err != nil {
		return "", 0, err
	}
	userKey, err := pubkeySeed(user)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(SeedCertificate), mint, userKey}, programID)
}

// ConfigAddress derives the singleton ProtocolConfig address. There is no
// variable seed; the tag alone identifies it.
func ConfigAddress(programID string) (string, uint8, error) {
	return FindProgramAddress([][]byte{[]byte(SeedProtocolConfig)}, programID)
}

// AssociatedTokenAddress derives a wallet's token-holding account for a
// mint under the associated-token program.
func AssociatedTokenAddress(wallet, mint, tokenProgramID, associatedTokenProgramID string) (string, uint8, error) {
	walletKey, err := pubkeySeed(wallet)
	if err != nil {
		return "", 0, err
	}
	tokenProgram, err := pubkeySeed(tokenProgramID)
	if err != nil {
		return "", 0, err
	}
	mintKey, err := pubkeySeed(mint)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{walletKey, tokenProgram, mintKey}, associatedTokenProgramID)
}

// ProposalAddress derives the BurnProposal address for a (vault, proposer)
// pair. The vault seed is the vault account address, not the asset mint.
func ProposalAddress(vaultAddress, proposer, programID string) (string, uint8, error) {
	vault, err := pubkeySeed(vaultAddress)
	if err != nil {
		return "", 0, err
	}
	proposerKey, err := pubkeySeed(proposer)
	if err != nil {
		return "", 0, err
	}
	return FindProgramAddress([][]byte{[]byte(SeedBurnProposal), vault, proposerKey}, programID)
}
