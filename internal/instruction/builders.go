package instruction

import (
	"fmt"

	"vault-recycler/internal/codec"
	"vault-recycler/internal/domain"
	"vault-recycler/internal/governance"
	"vault-recycler/internal/pda"
)

// Builder constructs unsigned instructions for one program deployment.
type Builder struct {
	programID string
	engine    *governance.Engine
}

// NewBuilder creates a Builder. An empty programID selects the default
// deployment.
func NewBuilder(programID string) *Builder {
	if programID == "" {
		programID = DefaultProgramID
	}
	return &Builder{programID: programID, engine: governance.NewEngine()}
}

// ProgramID returns the program this builder targets.
func (b *Builder) ProgramID() string {
	return b.programID
}

// InitializeProtocolConfig bootstraps the singleton config account.
func (b *Builder) InitializeProtocolConfig(authority, feeRecipient string, feeBasisPoints uint16) (*Instruction, error) {
	if feeBasisPoints > uint16(governance.FeeDenominator) {
		return nil, fmt.Errorf("%w: fee basis points %d above %d", ErrInvalidAmount, feeBasisPoints, governance.FeeDenominator)
	}
	configAddr, _, err := pda.ConfigAddress(b.programID)
	if err != nil {
		return nil, err
	}

	data := discriminator("initialize_protocol_config")
	data, err = codec.AppendPubkey(data, feeRecipient)
	if err != nil {
		return nil, err
	}
	data = codec.AppendU16(data, feeBasisPoints)

	return &Instruction{
		ProgramID: b.programID,
		Accounts: []AccountMeta{
			writable(configAddr),
			signer(authority),
			readonly(SystemProgramID),
		},
		Data: data,
	}, nil
}

// InitializeVault creates the per-asset vault. The ledger rejects the
// call if the derived address is already in use; the client does not
// pre-check existence.
func (b *Builder) InitializeVault(assetMint, authority, metadataURI string, governanceEnabled bool, voteThreshold *uint32) (*Instruction, error) {
	if len(metadataURI) > MaxMetadataURILen {
		return nil, ErrMetadataURITooLong
	}
	vaultAddr, _, err := pda.VaultAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}

	data := discriminator("initialize_vault")
	data = codec.AppendString(data, metadataURI)
	data = codec.AppendBool(data, governanceEnabled)
	if voteThreshold != nil {
		data = codec.AppendU8(data, 1)
		data = codec.AppendU32(data, *voteThreshold)
	} else {
		data = codec.AppendU8(data, 0)
	}

	return &Instruction{
		ProgramID: b.programID,
		Accounts: []AccountMeta{
			writable(vaultAddr),
			readonly(assetMint),
			signer(authority),
			readonly(SystemProgramID),
			readonly(RentSysvarID),
		},
		Data: data,
	}, nil
}

// DepositToVault moves depositor tokens into the vault and updates the
// depositor's contribution record.
func (b *Builder) DepositToVault(vault *domain.Vault, assetMint, depositor string, amount uint64) (*Instruction, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if vault == nil {
		return nil, ErrVaultUnknown
	}
	if vault.Status != domain.VaultActive {
		return nil, ErrVaultNotActive
	}

	vaultAddr, _, err := pda.VaultAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}
	vaultAuthority, _, err := pda.VaultAuthorityAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}
	contributionAddr, _, err := pda.ContributionAddress(assetMint, depositor, b.programID)
	if err != nil {
		return nil, err
	}
	depositorToken, _, err := pda.AssociatedTokenAddress(depositor, assetMint, TokenProgramID, AssociatedTokenProgramID)
	if err != nil {
		return nil, err
	}
	vaultToken, _, err := pda.AssociatedTokenAddress(vaultAuthority, assetMint, TokenProgramID, AssociatedTokenProgramID)
	if err != nil {
		return nil, err
	}
	configAddr, _, err := pda.ConfigAddress(b.programID)
	if err != nil {
		return nil, err
	}

	data := discriminator("deposit_to_vault")
	data = codec.AppendU64(data, amount)

	return &Instruction{
		ProgramID: b.programID,
		Accounts: []AccountMeta{
			writable(vaultAddr),
			readonly(vaultAuthority),
			writable(contributionAddr),
			readonly(configAddr),
			writable(depositorToken),
			writable(vaultToken),
			signer(depositor),
			readonly(TokenProgramID),
			readonly(SystemProgramID),
		},
		Data: data,
	}, nil
}

// BurnFromVault burns amount from the vault's held balance. Authority
// gating happens on the ledger; the balance check here is an optimistic
// pre-check against the supplied snapshot.
func (b *Builder) BurnFromVault(vault *domain.Vault, assetMint, authority string, amount uint64) (*Instruction, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if vault == nil {
		return nil, ErrVaultUnknown
	}
	if vault.Status != domain.VaultActive {
		return nil, ErrVaultNotActive
	}
	if amount > vault.AvailableBalance() {
		return nil, fmt.Errorf("%w: %d > %d", ErrInsufficientBalance, amount, vault.AvailableBalance())
	}

	vaultAddr, _, err := pda.VaultAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}
	vaultAuthority, _, err := pda.VaultAuthorityAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}
	vaultToken, _, err := pda.AssociatedTokenAddress(vaultAuthority, assetMint, TokenProgramID, AssociatedTokenProgramID)
	if err != nil {
		return nil, err
	}

	data := discriminator("burn_from_vault")
	data = codec.AppendU64(data, amount)

	return &Instruction{
		ProgramID: b.programID,
		Accounts: []AccountMeta{
			writable(vaultAddr),
			readonly(vaultAuthority),
			writable(vaultToken),
			writable(assetMint),
			signer(authority),
			readonly(TokenProgramID),
			readonly(ClockSysvarID),
		},
		Data: data,
	}, nil
}

// UpdateVaultMetadata replaces the vault's metadata URI.
func (b *Builder) UpdateVaultMetadata(vault *domain.Vault, assetMint, authority, metadataURI string) (*Instruction, error) {
	if len(metadataURI) > MaxMetadataURILen {
		return nil, ErrMetadataURITooLong
	}
	if vault == nil {
		return nil, ErrVaultUnknown
	}
	if vault.Status != domain.VaultActive {
		return nil, ErrVaultNotActive
	}

	vaultAddr, _, err := pda.VaultAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}

	data := discriminator("update_vault_metadata")
	data = codec.AppendString(data, metadataURI)

	return &Instruction{
		ProgramID: b.programID,
		Accounts: []AccountMeta{
			writable(vaultAddr),
			signer(authority),
		},
		Data: data,
	}, nil
}

// MintCertificate mints the proof-of-contribution record once the user's
// cumulative burned amount has crossed the certificate threshold. The
// threshold check mirrors the program's and is advisory only.
func (b *Builder) MintCertificate(contribution *domain.UserContribution, assetMint, user, metadataURI string) (*Instruction, error) {
	if len(metadataURI) > MaxMetadataURILen {
		return nil, ErrMetadataURITooLong
	}
	if contribution == nil || contribution.AmountBurned < domain.CertificateThreshold {
		return nil, ErrInsufficientContribution
	}

	certificateAddr, _, err := pda.CertificateAddress(assetMint, user, b.programID)
	if err != nil {
		return nil, err
	}
	contributionAddr, _, err := pda.ContributionAddress(assetMint, user, b.programID)
	if err != nil {
		return nil, err
	}
	vaultAddr, _, err := pda.VaultAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}

	data := discriminator("mint_certificate")
	data = codec.AppendString(data, metadataURI)

	return &Instruction{
		ProgramID: b.programID,
		Accounts: []AccountMeta{
			writable(certificateAddr),
			readonly(contributionAddr),
			readonly(vaultAddr),
			signer(user),
			readonly(SystemProgramID),
			readonly(ClockSysvarID),
		},
		Data: data,
	}, nil
}

// CloseVault closes a vault whose deposited balance net of burns is zero.
func (b *Builder) CloseVault(vault *domain.Vault, assetMint, authority string) (*Instruction, error) {
	if vault == nil {
		return nil, ErrVaultUnknown
	}
	if vault.AvailableBalance() != 0 {
		return nil, fmt.Errorf("%w: %d tokens remain", ErrVaultNotEmpty, vault.AvailableBalance())
	}

	vaultAddr, _, err := pda.VaultAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}
	vaultAuthority, _, err := pda.VaultAuthorityAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}

	return &Instruction{
		ProgramID: b.programID,
		Accounts: []AccountMeta{
			writable(vaultAddr),
			readonly(vaultAuthority),
			signer(authority),
		},
		Data: discriminator("close_vault"),
	}, nil
}

// ProposeBurn opens a vote-gated burn proposal on the vault.
func (b *Builder) ProposeBurn(vault *domain.Vault, assetMint, proposer string, amount uint64) (*Instruction, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if vault == nil {
		return nil, ErrVaultUnknown
	}
	if vault.Status != domain.VaultActive {
		return nil, ErrVaultNotActive
	}
	if amount > vault.AvailableBalance() {
		return nil, fmt.Errorf("%w: %d > %d", ErrInsufficientBalance, amount, vault.AvailableBalance())
	}

	vaultAddr, _, err := pda.VaultAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}
	proposalAddr, _, err := pda.ProposalAddress(vaultAddr, proposer, b.programID)
	if err != nil {
		return nil, err
	}

	data := discriminator("propose_burn")
	data = codec.AppendU64(data, amount)

	return &Instruction{
		ProgramID: b.programID,
		Accounts: []AccountMeta{
			writable(proposalAddr),
			readonly(vaultAddr),
			signer(proposer),
			readonly(SystemProgramID),
			readonly(ClockSysvarID),
		},
		Data: data,
	}, nil
}

// VoteOnProposal records one vote. A voter already in the set is blocked
// locally; the ledger enforces the same rule.
func (b *Builder) VoteOnProposal(proposal *domain.BurnProposal, voter string) (*Instruction, error) {
	if proposal == nil {
		return nil, ErrProposalUnknown
	}
	if proposal.HasVoted(voter) {
		return nil, ErrAlreadyVoted
	}
	if proposal.Status != domain.ProposalPending {
		return nil, ErrProposalNotPending
	}

	return &Instruction{
		ProgramID: b.programID,
		Accounts: []AccountMeta{
			writable(proposal.Address),
			signer(voter),
		},
		Data: discriminator("vote_on_proposal"),
	}, nil
}

// ExecuteBurnProposal executes an approved proposal. Balance, approval,
// and time-lock gating are pre-checked through the governance engine
// against the supplied snapshots; now is unix seconds.
func (b *Builder) ExecuteBurnProposal(proposal *domain.BurnProposal, vault *domain.Vault, assetMint, executor string, now int64) (*Instruction, error) {
	if proposal == nil {
		return nil, ErrProposalUnknown
	}
	if vault == nil {
		return nil, ErrVaultUnknown
	}
	if ok, reason := b.engine.CanExecuteProposal(proposal, vault, now); !ok {
		return nil, executionBlocked(reason)
	}

	vaultAddr, _, err := pda.VaultAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}
	vaultAuthority, _, err := pda.VaultAuthorityAddress(assetMint, b.programID)
	if err != nil {
		return nil, err
	}
	vaultToken, _, err := pda.AssociatedTokenAddress(vaultAuthority, assetMint, TokenProgramID, AssociatedTokenProgramID)
	if err != nil {
		return nil, err
	}

	return &Instruction{
		ProgramID: b.programID,
		Accounts: []AccountMeta{
			writable(proposal.Address),
			writable(vaultAddr),
			readonly(vaultAuthority),
			writable(vaultToken),
			writable(assetMint),
			signer(executor),
			readonly(TokenProgramID),
			readonly(ClockSysvarID),
		},
		Data: discriminator("execute_burn_proposal"),
	}, nil
}

func executionBlocked(reason string) error {
	switch reason {
	case governance.ReasonInsufficientBalance:
		return ErrInsufficientBalance
	case governance.ReasonNotApproved:
		return ErrProposalNotApproved
	case governance.ReasonTimeLockActive:
		return ErrTimeLockActive
	case governance.ReasonAlreadyExecuted:
		return ErrProposalExecuted
	default:
		return fmt.Errorf("execution blocked: %s", reason)
	}
}

// PauseProtocol halts deposits and burns protocol-wide. Authority gating
// happens on the ledger.
func (b *Builder) PauseProtocol(authority string) (*Instruction, error) {
	return b.configToggle("pause_protocol", authority)
}

// UnpauseProtocol resumes the protocol.
func (b *Builder) UnpauseProtocol(authority string) (*Instruction, error) {
	return b.configToggle("unpause_protocol", authority)
}

func (b *Builder) configToggle(op, authority string) (*Instruction, error) {
	configAddr, _, err := pda.ConfigAddress(b.programID)
	if err != nil {
		return nil, err
	}
	return &Instruction{
		ProgramID: b.programID,
		Accounts: []AccountMeta{
			writable(configAddr),
			signer(authority),
		},
		Data: discriminator(op),
	}, nil
}
