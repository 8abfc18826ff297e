// vaultctl inspects recycling-program state and emits unsigned
// instructions as JSON for external signing.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"vault-recycler/internal/classify"
	"vault-recycler/internal/domain"
	"vault-recycler/internal/governance"
	"vault-recycler/internal/instruction"
	"vault-recycler/internal/pda"
	"vault-recycler/internal/reader"
	"vault-recycler/internal/solana"
)

const usage = `Usage: vaultctl <command> [flags]

Commands:
  vault         Inspect a vault and its governance state
  config        Inspect the protocol config
  contribution  Inspect a user's contribution to a vault
  certificate   Inspect a user's certificate for a vault
  proposals     List burn proposals for a vault
  derive        Derive program addresses for an asset
  build         Build an unsigned instruction as JSON

Run 'vaultctl <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "vault":
		err = cmdVault(ctx, os.Args[2:])
	case "config":
		err = cmdConfig(ctx, os.Args[2:])
	case "contribution":
		err = cmdContribution(ctx, os.Args[2:])
	case "certificate":
		err = cmdCertificate(ctx, os.Args[2:])
	case "proposals":
		err = cmdProposals(ctx, os.Args[2:])
	case "derive":
		err = cmdDerive(os.Args[2:])
	case "build":
		err = cmdBuild(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		c := classify.ClassifyErr(err)
		fmt.Fprintf(os.Stderr, "Error: %s: %s (%s)\n", c.Title, c.Message, c.Kind)
		os.Exit(1)
	}
}

// chainFlags registers the flags every chain-touching command shares.
func chainFlags(fs *flag.FlagSet) (rpcEndpoint, programID *string) {
	rpcEndpoint = fs.String("rpc-endpoint", "", "Solana RPC HTTP endpoint")
	programID = fs.String("program-id", instruction.DefaultProgramID, "Recycling program ID")
	return rpcEndpoint, programID
}

func newReader(rpcEndpoint, programID string) (*reader.Reader, error) {
	if rpcEndpoint == "" {
		return nil, errors.New("--rpc-endpoint is required")
	}
	return reader.NewReader(solana.NewHTTPClient(rpcEndpoint), programID), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// vaultView is the vault inspection output: raw account state plus the
// evaluated governance view.
type vaultView struct {
	Vault             *domain.Vault `json:"vault"`
	AvailableBalance  uint64        `json:"availableBalance"`
	VoteThreshold     uint32        `json:"voteThreshold"`
	TimeLockActive    bool          `json:"timeLockActive"`
	TimeLockRemaining int64         `json:"timeLockRemainingSeconds"`
}

func cmdVault(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("vault", flag.ExitOnError)
	rpcEndpoint, programID := chainFlags(fs)
	mint := fs.String("mint", "", "Asset mint address")
	fs.Parse(args)

	if *mint == "" {
		return errors.New("--mint is required")
	}
	r, err := newReader(*rpcEndpoint, *programID)
	if err != nil {
		return err
	}

	vault, err := r.Vault(ctx, *mint)
	if err != nil {
		return err
	}

	engine := governance.NewEngine()
	now := time.Now().Unix()
	return printJSON(vaultView{
		Vault:             vault,
		AvailableBalance:  vault.AvailableBalance(),
		VoteThreshold:     engine.VoteThreshold(vault),
		TimeLockActive:    engine.IsTimeLockActive(vault.LastBurnAt, governance.DefaultCooldownSeconds, now),
		TimeLockRemaining: engine.TimeLockRemaining(vault.LastBurnAt, governance.DefaultCooldownSeconds, now),
	})
}

func cmdConfig(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	rpcEndpoint, programID := chainFlags(fs)
	fs.Parse(args)

	r, err := newReader(*rpcEndpoint, *programID)
	if err != nil {
		return err
	}

	cfg, err := r.Config(ctx)
	if err != nil {
		return err
	}
	return printJSON(cfg)
}

// contributionView pairs the raw contribution with certificate
// eligibility, which depends only on the cumulative burned amount.
type contributionView struct {
	Contribution        *domain.UserContribution `json:"contribution"`
	CertificateEligible bool                     `json:"certificateEligible"`
	BurnRemaining       uint64                   `json:"burnRemainingForCertificate"`
}

func cmdContribution(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("contribution", flag.ExitOnError)
	rpcEndpoint, programID := chainFlags(fs)
	mint := fs.String("mint", "", "Asset mint address")
	user := fs.String("user", "", "User wallet address")
	fs.Parse(args)

	if *mint == "" || *user == "" {
		return errors.New("--mint and --user are required")
	}
	r, err := newReader(*rpcEndpoint, *programID)
	if err != nil {
		return err
	}

	contribution, err := r.Contribution(ctx, *mint, *user)
	if err != nil {
		return err
	}

	var remaining uint64
	if contribution.AmountBurned < domain.CertificateThreshold {
		remaining = domain.CertificateThreshold - contribution.AmountBurned
	}
	return printJSON(contributionView{
		Contribution:        contribution,
		CertificateEligible: contribution.AmountBurned >= domain.CertificateThreshold,
		BurnRemaining:       remaining,
	})
}

func cmdCertificate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("certificate", flag.ExitOnError)
	rpcEndpoint, programID := chainFlags(fs)
	mint := fs.String("mint", "", "Asset mint address")
	user := fs.String("user", "", "User wallet address")
	fs.Parse(args)

	if *mint == "" || *user == "" {
		return errors.New("--mint and --user are required")
	}
	r, err := newReader(*rpcEndpoint, *programID)
	if err != nil {
		return err
	}

	cert, err := r.Certificate(ctx, *mint, *user)
	if err != nil {
		return err
	}
	return printJSON(cert)
}

// proposalView is one proposal with its evaluated governance state.
type proposalView struct {
	Proposal        *domain.BurnProposal  `json:"proposal"`
	EffectiveStatus domain.ProposalStatus `json:"effectiveStatus"`
	Progress        float64               `json:"progressPercent"`
	VotesRemaining  uint32                `json:"votesRemaining"`
	Executable      bool                  `json:"executable"`
	BlockedReason   string                `json:"blockedReason,omitempty"`
}

func cmdProposals(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("proposals", flag.ExitOnError)
	rpcEndpoint, programID := chainFlags(fs)
	mint := fs.String("mint", "", "Asset mint address")
	fs.Parse(args)

	if *mint == "" {
		return errors.New("--mint is required")
	}
	r, err := newReader(*rpcEndpoint, *programID)
	if err != nil {
		return err
	}

	vault, err := r.Vault(ctx, *mint)
	if err != nil {
		return err
	}
	proposals, err := r.ProposalsForVault(ctx, vault.Address)
	if err != nil {
		return err
	}

	engine := governance.NewEngine()
	threshold := engine.VoteThreshold(vault)
	now := time.Now().Unix()

	views := make([]proposalView, 0, len(proposals))
	for _, p := range proposals {
		progress, remaining := engine.VotingProgress(p.VoteCount, threshold)
		ok, reason := engine.CanExecuteProposal(p, vault, now)
		views = append(views, proposalView{
			Proposal:        p,
			EffectiveStatus: engine.EffectiveStatus(p, threshold),
			Progress:        progress,
			VotesRemaining:  remaining,
			Executable:      ok,
			BlockedReason:   reason,
		})
	}
	return printJSON(views)
}

func cmdDerive(args []string) error {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	programID := fs.String("program-id", instruction.DefaultProgramID, "Recycling program ID")
	mint := fs.String("mint", "", "Asset mint address")
	user := fs.String("user", "", "User wallet address (for contribution/certificate)")
	proposer := fs.String("proposer", "", "Proposer address (for proposal)")
	fs.Parse(args)

	out := map[string]string{}

	configAddr, _, err := pda.ConfigAddress(*programID)
	if err != nil {
		return err
	}
	out["config"] = configAddr

	if *mint != "" {
		vaultAddr, _, err := pda.VaultAddress(*mint, *programID)
		if err != nil {
			return err
		}
		out["vault"] = vaultAddr

		authAddr, _, err := pda.VaultAuthorityAddress(*mint, *programID)
		if err != nil {
			return err
		}
		out["vaultAuthority"] = authAddr

		if *user != "" {
			contribAddr, _, err := pda.ContributionAddress(*mint, *user, *programID)
			if err != nil {
				return err
			}
			out["contribution"] = contribAddr

			certAddr, _, err := pda.CertificateAddress(*mint, *user, *programID)
			if err != nil {
				return err
			}
			out["certificate"] = certAddr
		}
		if *proposer != "" {
			proposalAddr, _, err := pda.ProposalAddress(vaultAddr, *proposer, *programID)
			if err != nil {
				return err
			}
			out["proposal"] = proposalAddr
		}
	}
	return printJSON(out)
}

// depositBuildView pairs the unsigned instruction with the fee split the
// protocol will apply to the amount.
type depositBuildView struct {
	Instruction *instruction.Instruction `json:"instruction"`
	Fee         uint64                   `json:"fee"`
	Net         uint64                   `json:"net"`
}

func cmdBuild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	rpcEndpoint, programID := chainFlags(fs)
	op := fs.String("op", "", "Operation: init-config, init-vault, deposit, burn, update-metadata, mint-certificate, close-vault, propose-burn, vote, execute, pause, unpause")
	mint := fs.String("mint", "", "Asset mint address")
	authority := fs.String("authority", "", "Authority address")
	user := fs.String("user", "", "User wallet address")
	proposer := fs.String("proposer", "", "Proposer address (for vote/execute)")
	amount := fs.Uint64("amount", 0, "Token amount in base units")
	uri := fs.String("uri", "", "Metadata URI")
	feeRecipient := fs.String("fee-recipient", "", "Fee recipient address (init-config)")
	feeBP := fs.Uint("fee-bp", 0, "Fee in basis points (init-config)")
	governanceEnabled := fs.Bool("governance", false, "Enable governance (init-vault)")
	voteThreshold := fs.Uint("vote-threshold", 0, "Vote threshold, 0 for protocol default (init-vault)")
	fs.Parse(args)

	builder := instruction.NewBuilder(*programID)

	// Operations that only derive addresses need no RPC round trip.
	switch *op {
	case "init-config":
		ix, err := builder.InitializeProtocolConfig(*authority, *feeRecipient, uint16(*feeBP))
		if err != nil {
			return err
		}
		return printJSON(ix)
	case "init-vault":
		var threshold *uint32
		if *voteThreshold > 0 {
			t := uint32(*voteThreshold)
			threshold = &t
		}
		ix, err := builder.InitializeVault(*mint, *authority, *uri, *governanceEnabled, threshold)
		if err != nil {
			return err
		}
		return printJSON(ix)
	case "pause":
		ix, err := builder.PauseProtocol(*authority)
		if err != nil {
			return err
		}
		return printJSON(ix)
	case "unpause":
		ix, err := builder.UnpauseProtocol(*authority)
		if err != nil {
			return err
		}
		return printJSON(ix)
	}

	// Everything else validates against fetched account state.
	r, err := newReader(*rpcEndpoint, *programID)
	if err != nil {
		return err
	}

	switch *op {
	case "deposit":
		vault, err := r.Vault(ctx, *mint)
		if err != nil {
			return err
		}
		ix, err := builder.DepositToVault(vault, *mint, *user, *amount)
		if err != nil {
			return err
		}
		cfg, err := r.Config(ctx)
		if err != nil && !errors.Is(err, reader.ErrNotFound) {
			return err
		}
		engine := governance.NewEngine()
		fee, net := engine.ComputeFee(*amount, engine.FeeBasisPoints(cfg))
		return printJSON(depositBuildView{Instruction: ix, Fee: fee, Net: net})
	case "burn":
		vault, err := r.Vault(ctx, *mint)
		if err != nil {
			return err
		}
		ix, err := builder.BurnFromVault(vault, *mint, *authority, *amount)
		if err != nil {
			return err
		}
		return printJSON(ix)
	case "update-metadata":
		vault, err := r.Vault(ctx, *mint)
		if err != nil {
			return err
		}
		ix, err := builder.UpdateVaultMetadata(vault, *mint, *authority, *uri)
		if err != nil {
			return err
		}
		return printJSON(ix)
	case "mint-certificate":
		contribution, err := r.Contribution(ctx, *mint, *user)
		if err != nil && !errors.Is(err, reader.ErrNotFound) {
			return err
		}
		ix, err := builder.MintCertificate(contribution, *mint, *user, *uri)
		if err != nil {
			return err
		}
		return printJSON(ix)
	case "close-vault":
		vault, err := r.Vault(ctx, *mint)
		if err != nil {
			return err
		}
		ix, err := builder.CloseVault(vault, *mint, *authority)
		if err != nil {
			return err
		}
		return printJSON(ix)
	case "propose-burn":
		vault, err := r.Vault(ctx, *mint)
		if err != nil {
			return err
		}
		ix, err := builder.ProposeBurn(vault, *mint, *proposer, *amount)
		if err != nil {
			return err
		}
		return printJSON(ix)
	case "vote":
		vault, err := r.Vault(ctx, *mint)
		if err != nil {
			return err
		}
		proposal, err := r.Proposal(ctx, vault.Address, *proposer)
		if err != nil {
			return err
		}
		ix, err := builder.VoteOnProposal(proposal, *user)
		if err != nil {
			return err
		}
		return printJSON(ix)
	case "execute":
		vault, err := r.Vault(ctx, *mint)
		if err != nil {
			return err
		}
		proposal, err := r.Proposal(ctx, vault.Address, *proposer)
		if err != nil {
			return err
		}
		ix, err := builder.ExecuteBurnProposal(proposal, vault, *mint, *user, time.Now().Unix())
		if err != nil {
			return err
		}
		return printJSON(ix)
	case "":
		return errors.New("--op is required")
	default:
		return fmt.Errorf("unknown operation: %s", *op)
	}
}
