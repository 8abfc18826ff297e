package reader

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	"vault-recycler/internal/codec"
	"vault-recycler/internal/domain"
	"vault-recycler/internal/observability"
)

// Account layouts: an 8-byte discriminator tag followed by the fields of
// the corresponding entity, in declaration order. Integers are
// little-endian, strings u32-length-prefixed, options 1-byte tagged.

var (
	vaultDiscriminator        = accountDiscriminator("VaultState")
	contributionDiscriminator = accountDiscriminator("UserContribution")
	certificateDiscriminator  = accountDiscriminator("Certificate")
	configDiscriminator       = accountDiscriminator("ProtocolConfig")
	proposalDiscriminator     = accountDiscriminator("BurnProposal")
)

func accountDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:8]
}

func encodeBase58(b []byte) string {
	return base58.Encode(b)
}

func checkDiscriminator(data, want []byte, kind string) (*codec.Decoder, error) {
	if len(data) < len(want) {
		observability.RecordDecodeFailure(kind)
		return nil, fmt.Errorf("decode %s: data too short (%d bytes)", kind, len(data))
	}
	if !bytes.Equal(data[:len(want)], want) {
		observability.RecordDecodeFailure(kind)
		return nil, fmt.Errorf("decode %s: discriminator mismatch", kind)
	}
	return codec.NewDecoder(data[len(want):]), nil
}

func decodeVault(address string, data []byte) (*domain.Vault, error) {
	d, err := checkDiscriminator(data, vaultDiscriminator, "vault")
	if err != nil {
		return nil, err
	}

	v := &domain.Vault{Address: address}
	v.AssetMint = d.Pubkey()
	v.Authority = d.Pubkey()
	v.TotalDeposited = d.U64()
	v.TotalBurned = d.U64()
	v.Status = domain.VaultStatus(d.U8())
	v.MetadataURI = d.String()
	v.CreatedAt = d.I64()
	v.GovernanceEnabled = d.Bool()
	v.VoteThreshold = d.OptionU32()
	v.LastBurnAt = d.OptionI64()

	if err := d.Err(); err != nil {
		observability.RecordDecodeFailure("vault")
		return nil, fmt.Errorf("decode vault %s: %w", address, err)
	}
	observability.RecordAccountDecoded("vault")
	return v, nil
}

func decodeContribution(address string, data []byte) (*domain.UserContribution, error) {
	d, err := checkDiscriminator(data, contributionDiscriminator, "contribution")
	if err != nil {
		return nil, err
	}

	c := &domain.UserContribution{Address: address}
	c.User = d.Pubkey()
	c.AssetMint = d.Pubkey()
	c.AmountDeposited = d.U64()
	c.AmountBurned = d.U64()
	c.UpdatedAt = d.I64()

	if err := d.Err(); err != nil {
		observability.RecordDecodeFailure("contribution")
		return nil, fmt.Errorf("decode contribution %s: %w", address, err)
	}
	observability.RecordAccountDecoded("contribution")
	return c, nil
}

func decodeCertificate(address string, data []byte) (*domain.Certificate, error) {
	d, err := checkDiscriminator(data, certificateDiscriminator, "certificate")
	if err != nil {
		return nil, err
	}

	c := &domain.Certificate{Address: address}
	c.AssetMint = d.Pubkey()
	c.Owner = d.Pubkey()
	c.AmountBurned = d.U64()
	c.IssuedAt = d.I64()
	c.MetadataURI = d.String()

	if err := d.Err(); err != nil {
		observability.RecordDecodeFailure("certificate")
		return nil, fmt.Errorf("decode certificate %s: %w", address, err)
	}
	observability.RecordAccountDecoded("certificate")
	return c, nil
}

func decodeConfig(address string, data []byte) (*domain.ProtocolConfig, error) {
	d, err := checkDiscriminator(data, configDiscriminator, "protocol config")
	if err != nil {
		return nil, err
	}

	cfg := &domain.ProtocolConfig{Address: address}
	cfg.Authority = d.Pubkey()
	cfg.FeeRecipient = d.Pubkey()
	cfg.FeeBasisPoints = d.U16()
	cfg.Paused = d.Bool()

	if err := d.Err(); err != nil {
		observability.RecordDecodeFailure("protocol config")
		return nil, fmt.Errorf("decode protocol config %s: %w", address, err)
	}
	observability.RecordAccountDecoded("protocol config")
	return cfg, nil
}

func decodeProposal(address string, data []byte) (*domain.BurnProposal, error) {
	d, err := checkDiscriminator(data, proposalDiscriminator, "proposal")
	if err != nil {
		return nil, err
	}

	p := &domain.BurnProposal{Address: address}
	p.Vault = d.Pubkey()
	p.Proposer = d.Pubkey()
	p.Amount = d.U64()
	p.VoteCount = d.U32()

	voterCount := d.U32()
	if d.Err() == nil {
		// The count comes from untrusted bytes; cap the allocation by
		// what the buffer can actually hold.
		capHint := voterCount
		if maxVoters := uint32(d.Remaining() / codec.PubkeyLen); capHint > maxVoters {
			capHint = maxVoters
		}
		p.Voters = make([]string, 0, capHint)
		for i := uint32(0); i < voterCount && d.Err() == nil; i++ {
			p.Voters = append(p.Voters, d.Pubkey())
		}
	}

	p.CreatedAt = d.I64()
	p.ExecutedAt = d.OptionI64()
	p.Status = domain.ProposalStatus(d.U8())

	if err := d.Err(); err != nil {
		observability.RecordDecodeFailure("proposal")
		return nil, fmt.Errorf("decode proposal %s: %w", address, err)
	}
	observability.RecordAccountDecoded("proposal")
	return p, nil
}
