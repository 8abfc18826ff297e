package reader

import (
	"vault-recycler/internal/codec"
	"vault-recycler/internal/domain"
)

// Fixture encoders mirror the account layouts in accounts.go. They exist
// for tests and local stubs; the client itself never writes accounts.

// EncodeVault serializes a vault into VaultState account bytes.
func EncodeVault(v *domain.Vault) ([]byte, error) {
	data := append([]byte(nil), vaultDiscriminator...)
	var err error
	if data, err = codec.AppendPubkey(data, v.AssetMint); err != nil {
		return nil, err
	}
	if data, err = codec.AppendPubkey(data, v.Authority); err != nil {
		return nil, err
	}
	data = codec.AppendU64(data, v.TotalDeposited)
	data = codec.AppendU64(data, v.TotalBurned)
	data = codec.AppendU8(data, uint8(v.Status))
	data = codec.AppendString(data, v.MetadataURI)
	data = codec.AppendI64(data, v.CreatedAt)
	data = codec.AppendBool(data, v.GovernanceEnabled)
	if v.VoteThreshold != nil {
		data = codec.AppendU8(data, 1)
		data = codec.AppendU32(data, *v.VoteThreshold)
	} else {
		data = codec.AppendU8(data, 0)
	}
	if v.LastBurnAt != nil {
		data = codec.AppendU8(data, 1)
		data = codec.AppendI64(data, *v.LastBurnAt)
	} else {
		data = codec.AppendU8(data, 0)
	}
	return data, nil
}

// EncodeContribution serializes a contribution record.
func EncodeContribution(c *domain.UserContribution) ([]byte, error) {
	data := append([]byte(nil), contributionDiscriminator...)
	var err error
	if data, err = codec.AppendPubkey(data, c.User); err != nil {
		return nil, err
	}
	if data, err = codec.AppendPubkey(data, c.AssetMint); err != nil {
		return nil, err
	}
	data = codec.AppendU64(data, c.AmountDeposited)
	data = codec.AppendU64(data, c.AmountBurned)
	data = codec.AppendI64(data, c.UpdatedAt)
	return data, nil
}

// EncodeCertificate serializes a certificate record.
func EncodeCertificate(c *domain.Certificate) ([]byte, error) {
	data := append([]byte(nil), certificateDiscriminator...)
	var err error
	if data, err = codec.AppendPubkey(data, c.AssetMint); err != nil {
		return nil, err
	}
	if data, err = codec.AppendPubkey(data, c.Owner); err != nil {
		return nil, err
	}
	data = codec.AppendU64(data, c.AmountBurned)
	data = codec.AppendI64(data, c.IssuedAt)
	data = codec.AppendString(data, c.MetadataURI)
	return data, nil
}

// EncodeConfig serializes the protocol config singleton.
func EncodeConfig(cfg *domain.ProtocolConfig) ([]byte, error) {
	data := append([]byte(nil), configDiscriminator...)
	var err error
	if data, err = codec.AppendPubkey(data, cfg.Authority); err != nil {
		return nil, err
	}
	if data, err = codec.AppendPubkey(data, cfg.FeeRecipient); err != nil {
		return nil, err
	}
	data = codec.AppendU16(data, cfg.FeeBasisPoints)
	data = codec.AppendBool(data, cfg.Paused)
	return data, nil
}

// EncodeProposal serializes a burn proposal.
func EncodeProposal(p *domain.BurnProposal) ([]byte, error) {
	data := append([]byte(nil), proposalDiscriminator...)
	var err error
	if data, err = codec.AppendPubkey(data, p.Vault); err != nil {
		return nil, err
	}
	if data, err = codec.AppendPubkey(data, p.Proposer); err != nil {
		return nil, err
	}
	data = codec.AppendU64(data, p.Amount)
	data = codec.AppendU32(data, p.VoteCount)
	data = codec.AppendU32(data, uint32(len(p.Voters)))
	for _, voter := range p.Voters {
		if data, err = codec.AppendPubkey(data, voter); err != nil {
			return nil, err
		}
	}
	data = codec.AppendI64(data, p.CreatedAt)
	if p.ExecutedAt != nil {
		data = codec.AppendU8(data, 1)
		data = codec.AppendI64(data, *p.ExecutedAt)
	} else {
		data = codec.AppendU8(data, 0)
	}
	data = codec.AppendU8(data, uint8(p.Status))
	return data, nil
}
