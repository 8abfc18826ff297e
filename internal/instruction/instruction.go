// Package instruction builds unsigned ledger instructions for the
// recycler program. Builders combine derived addresses with typed
// arguments; they never sign or submit. Every pre-check here is
// advisory; the ledger re-validates and remains authoritative.
package instruction

import (
	"crypto/sha256"
	"errors"
)

// DefaultProgramID is the recycler program deployment.
const DefaultProgramID = "EydBxtu5e4mNEEnCYAxNdzFmRjN2wUTiWuHfkYDRfABA"

// Well-known ledger programs and sysvars referenced by instructions.
const (
	SystemProgramID          = "11111111111111111111111111111111"
	TokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	RentSysvarID             = "SysvarRent111111111111111111111111111111111"
	ClockSysvarID            = "SysvarC1ock11111111111111111111111111111111"
)

// MaxMetadataURILen mirrors the program's StringTooLong limit.
const MaxMetadataURILen = 200

// Pre-check failures, resolved locally before any network call.
var (
	ErrInvalidAmount            = errors.New("amount must be a positive quantity")
	ErrVaultUnknown             = errors.New("vault is not known to the local cache")
	ErrVaultNotActive           = errors.New("vault is not active")
	ErrInsufficientBalance      = errors.New("amount exceeds the vault's available balance")
	ErrInsufficientContribution = errors.New("burned amount below certificate threshold")
	ErrVaultNotEmpty            = errors.New("vault balance must be zero before closing")
	ErrAlreadyVoted             = errors.New("user already voted on this proposal")
	ErrProposalUnknown          = errors.New("proposal is not known to the local cache")
	ErrProposalNotPending       = errors.New("proposal is not pending")
	ErrProposalNotApproved      = errors.New("proposal has not reached the vote threshold")
	ErrProposalExecuted         = errors.New("proposal already reached a terminal state")
	ErrTimeLockActive           = errors.New("burn cooldown has not expired")
	ErrMetadataURITooLong       = errors.New("metadata URI exceeds maximum length")
)

// AccountMeta is one entry of an instruction's ordered account list.
type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// Instruction is an unsigned instruction descriptor, ready to be placed
// into a transaction and signed by an external wallet.
type Instruction struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      []byte        `json:"data"`
}

// discriminator returns the 8-byte payload tag for a program operation.
func discriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

func writable(pubkey string) AccountMeta {
	return AccountMeta{Pubkey: pubkey, IsWritable: true}
}

func readonly(pubkey string) AccountMeta {
	return AccountMeta{Pubkey: pubkey}
}

func signer(pubkey string) AccountMeta {
	return AccountMeta{Pubkey: pubkey, IsSigner: true, IsWritable: true}
}
