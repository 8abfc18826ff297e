// Package governance evaluates burn-proposal rules against fetched
// snapshots. The engine is stateless and never mutates anything; the
// ledger's own accounting is the source of truth.
package governance

import (
	"math/bits"

	"vault-recycler/internal/domain"
)

// Protocol defaults applied when the vault or config leaves them unset.
const (
	DefaultVoteThreshold   uint32 = 2
	DefaultCooldownSeconds int64  = 3600
	FeeDenominator         uint64 = 10000
)

// Execution-gating reasons, in check order.
const (
	ReasonInsufficientBalance = "Insufficient vault balance"
	ReasonNotApproved         = "Proposal not approved"
	ReasonTimeLockActive      = "Time lock active"
	ReasonAlreadyExecuted     = "Proposal already executed"
)

// Engine evaluates governance predicates over snapshots.
type Engine struct{}

// NewEngine creates a governance engine.
func NewEngine() *Engine {
	return &Engine{}
}

// VoteThreshold returns the vault's vote threshold, falling back to the
// protocol default when unset.
func (e *Engine) VoteThreshold(v *domain.Vault) uint32 {
	if v != nil && v.VoteThreshold != nil && *v.VoteThreshold > 0 {
		return *v.VoteThreshold
	}
	return DefaultVoteThreshold
}

// EffectiveStatus resolves the approval ambiguity between the stored
// status and the vote count: a proposal stored as Pending whose vote
// count has reached the threshold is reported as Approved. Any other
// stored status is returned as-is.
func (e *Engine) EffectiveStatus(p *domain.BurnProposal, threshold uint32) domain.ProposalStatus {
	if p.Status == domain.ProposalPending && threshold > 0 && p.VoteCount >= threshold {
		return domain.ProposalApproved
	}
	return p.Status
}

// CanUserVote reports whether user may vote on p. A vote is accepted only
// while the stored status is Pending and the user has not voted before;
// a voter already in the set is never eligible again, regardless of status.
func (e *Engine) CanUserVote(p *domain.BurnProposal, user string) bool {
	if p == nil || p.HasVoted(user) {
		return false
	}
	return p.Status == domain.ProposalPending
}

// CanExecuteProposal reports whether p may execute against vault v at
// time now (unix seconds). When blocked, the returned reason names the
// first failing check: balance, then approval, then time lock.
func (e *Engine) CanExecuteProposal(p *domain.BurnProposal, v *domain.Vault, now int64) (bool, string) {
	if p.Status.Terminal() {
		return false, ReasonAlreadyExecuted
	}
	if p.Amount > v.AvailableBalance() {
		return false, ReasonInsufficientBalance
	}
	if e.EffectiveStatus(p, e.VoteThreshold(v)) != domain.ProposalApproved {
		return false, ReasonNotApproved
	}
	if e.IsTimeLockActive(v.LastBurnAt, DefaultCooldownSeconds, now) {
		return false, ReasonTimeLockActive
	}
	return true, ""
}

// IsTimeLockActive reports whether the post-burn cooldown is still
// running at time now. A vault that never burned has no lock.
func (e *Engine) IsTimeLockActive(lastBurnAt *int64, cooldownSeconds, now int64) bool {
	return e.TimeLockRemaining(lastBurnAt, cooldownSeconds, now) > 0
}

// TimeLockRemaining returns the seconds left on the cooldown, floored
// at zero. It reaches zero exactly at lastBurnAt + cooldown.
func (e *Engine) TimeLockRemaining(lastBurnAt *int64, cooldownSeconds, now int64) int64 {
	if lastBurnAt == nil {
		return 0
	}
	remaining := *lastBurnAt + cooldownSeconds - now
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ComputeFee splits amount into fee and net using basis points:
// fee = floor(amount * bp / 10000). fee + net always equals amount.
// The intermediate product is computed in 128 bits so large amounts
// cannot overflow. Basis points above the denominator are clamped to
// it; a decoded config is not trusted to stay in range.
func (e *Engine) ComputeFee(amount uint64, feeBasisPoints uint16) (fee, net uint64) {
	bp := uint64(feeBasisPoints)
	if bp > FeeDenominator {
		bp = FeeDenominator
	}
	hi, lo := bits.Mul64(amount, bp)
	fee, _ = bits.Div64(hi, lo, FeeDenominator)
	return fee, amount - fee
}

// FeeBasisPoints reads the fee from config; a missing config means zero fee.
func (e *Engine) FeeBasisPoints(cfg *domain.ProtocolConfig) uint16 {
	if cfg == nil {
		return 0
	}
	return cfg.FeeBasisPoints
}

// VotingProgress returns the percentage toward threshold, capped at 100,
// and the number of votes still missing, floored at zero.
func (e *Engine) VotingProgress(votes, threshold uint32) (percentage float64, remaining uint32) {
	if threshold == 0 {
		return 100, 0
	}
	percentage = float64(votes) / float64(threshold) * 100
	if percentage > 100 {
		percentage = 100
	}
	if votes < threshold {
		remaining = threshold - votes
	}
	return percentage, remaining
}
