package domain

// ProposalStatus is the stored state of a burn proposal. Transitions are
// one-directional: Pending -> Approved -> Executed, or Pending -> Rejected.
type ProposalStatus uint8

const (
	ProposalPending  ProposalStatus = 0
	ProposalApproved ProposalStatus = 1
	ProposalExecuted ProposalStatus = 2
	ProposalRejected ProposalStatus = 3
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalPending:
		return "PENDING"
	case ProposalApproved:
		return "APPROVED"
	case ProposalExecuted:
		return "EXECUTED"
	case ProposalRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions are possible.
func (s ProposalStatus) Terminal() bool {
	return s == ProposalExecuted || s == ProposalRejected
}

// BurnProposal is the decoded proposal account, one per (vault, proposer).
// Invariant: Voters holds no duplicates and VoteCount == len(Voters).
type BurnProposal struct {
	Address    string // PDA, base58
	Vault      string // vault account address
	Proposer   string
	Amount     uint64 // proposed burn amount
	VoteCount  uint32
	Voters     []string
	CreatedAt  int64  // unix seconds
	ExecutedAt *int64 // nil unless executed
	Status     ProposalStatus
}

// HasVoted reports whether user already appears in the voter set.
func (p *BurnProposal) HasVoted(user string) bool {
	for _, v := range p.Voters {
		if v == user {
			return true
		}
	}
	return false
}
