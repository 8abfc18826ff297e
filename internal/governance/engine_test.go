package governance

import (
	"testing"

	"vault-recycler/internal/domain"
)

func u32Ptr(v uint32) *uint32 { return &v }
func i64Ptr(v int64) *int64   { return &v }

func TestVoteThreshold(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name  string
		vault *domain.Vault
		want  uint32
	}{
		{"nil vault", nil, DefaultVoteThreshold},
		{"unset threshold", &domain.Vault{}, DefaultVoteThreshold},
		{"zero threshold falls back", &domain.Vault{VoteThreshold: u32Ptr(0)}, DefaultVoteThreshold},
		{"explicit threshold", &domain.Vault{VoteThreshold: u32Ptr(5)}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.VoteThreshold(tt.vault); got != tt.want {
				t.Errorf("VoteThreshold() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEffectiveStatus(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name      string
		status    domain.ProposalStatus
		votes     uint32
		threshold uint32
		want      domain.ProposalStatus
	}{
		{"pending below threshold", domain.ProposalPending, 1, 2, domain.ProposalPending},
		{"pending at threshold", domain.ProposalPending, 2, 2, domain.ProposalApproved},
		{"pending above threshold", domain.ProposalPending, 3, 2, domain.ProposalApproved},
		{"executed stays executed", domain.ProposalExecuted, 5, 2, domain.ProposalExecuted},
		{"rejected stays rejected", domain.ProposalRejected, 5, 2, domain.ProposalRejected},
		{"stored approved stays approved", domain.ProposalApproved, 0, 2, domain.ProposalApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &domain.BurnProposal{Status: tt.status, VoteCount: tt.votes}
			if got := e.EffectiveStatus(p, tt.threshold); got != tt.want {
				t.Errorf("EffectiveStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanUserVote(t *testing.T) {
	e := NewEngine()
	const voter = "5Ybqn2iTzqt6MLzAxG9QpRZeJP2EQxqkYzGsYoZNe6wA"

	tests := []struct {
		name     string
		proposal *domain.BurnProposal
		want     bool
	}{
		{"nil proposal", nil, false},
		{"pending fresh voter", &domain.BurnProposal{Status: domain.ProposalPending}, true},
		{"already voted", &domain.BurnProposal{Status: domain.ProposalPending, Voters: []string{voter}}, false},
		{"executed proposal", &domain.BurnProposal{Status: domain.ProposalExecuted}, false},
		{"rejected proposal", &domain.BurnProposal{Status: domain.ProposalRejected}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.CanUserVote(tt.proposal, voter); got != tt.want {
				t.Errorf("CanUserVote() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanExecuteProposal(t *testing.T) {
	e := NewEngine()

	base := func() (*domain.BurnProposal, *domain.Vault) {
		p := &domain.BurnProposal{
			Status:    domain.ProposalPending,
			VoteCount: 2,
			Amount:    500,
		}
		v := &domain.Vault{
			TotalDeposited: 1000,
			TotalBurned:    0,
		}
		return p, v
	}

	t.Run("executable", func(t *testing.T) {
		p, v := base()
		ok, reason := e.CanExecuteProposal(p, v, 1000)
		if !ok || reason != "" {
			t.Errorf("CanExecuteProposal() = %v, %q; want true, empty", ok, reason)
		}
	})

	t.Run("terminal blocks first", func(t *testing.T) {
		p, v := base()
		p.Status = domain.ProposalExecuted
		p.Amount = 5000 // balance also insufficient; terminal wins
		ok, reason := e.CanExecuteProposal(p, v, 1000)
		if ok || reason != ReasonAlreadyExecuted {
			t.Errorf("CanExecuteProposal() = %v, %q; want false, %q", ok, reason, ReasonAlreadyExecuted)
		}
	})

	t.Run("balance checked before approval", func(t *testing.T) {
		p, v := base()
		p.Amount = 5000
		p.VoteCount = 0 // also unapproved; balance wins
		ok, reason := e.CanExecuteProposal(p, v, 1000)
		if ok || reason != ReasonInsufficientBalance {
			t.Errorf("CanExecuteProposal() = %v, %q; want false, %q", ok, reason, ReasonInsufficientBalance)
		}
	})

	t.Run("not approved", func(t *testing.T) {
		p, v := base()
		p.VoteCount = 1
		ok, reason := e.CanExecuteProposal(p, v, 1000)
		if ok || reason != ReasonNotApproved {
			t.Errorf("CanExecuteProposal() = %v, %q; want false, %q", ok, reason, ReasonNotApproved)
		}
	})

	t.Run("time lock active", func(t *testing.T) {
		p, v := base()
		v.LastBurnAt = i64Ptr(1000)
		ok, reason := e.CanExecuteProposal(p, v, 1000+DefaultCooldownSeconds-1)
		if ok || reason != ReasonTimeLockActive {
			t.Errorf("CanExecuteProposal() = %v, %q; want false, %q", ok, reason, ReasonTimeLockActive)
		}
	})

	t.Run("time lock expired exactly at boundary", func(t *testing.T) {
		p, v := base()
		v.LastBurnAt = i64Ptr(1000)
		ok, reason := e.CanExecuteProposal(p, v, 1000+DefaultCooldownSeconds)
		if !ok || reason != "" {
			t.Errorf("CanExecuteProposal() = %v, %q; want true, empty", ok, reason)
		}
	})
}

func TestTimeLockRemaining(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name       string
		lastBurnAt *int64
		now        int64
		want       int64
	}{
		{"never burned", nil, 5000, 0},
		{"just burned", i64Ptr(1000), 1000, 3600},
		{"mid cooldown", i64Ptr(1000), 2800, 1800},
		{"boundary", i64Ptr(1000), 4600, 0},
		{"past boundary", i64Ptr(1000), 9000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.TimeLockRemaining(tt.lastBurnAt, DefaultCooldownSeconds, tt.now)
			if got != tt.want {
				t.Errorf("TimeLockRemaining() = %d, want %d", got, tt.want)
			}
			if active := e.IsTimeLockActive(tt.lastBurnAt, DefaultCooldownSeconds, tt.now); active != (tt.want > 0) {
				t.Errorf("IsTimeLockActive() = %v, want %v", active, tt.want > 0)
			}
		})
	}
}

func TestTimeLockMonotonic(t *testing.T) {
	e := NewEngine()
	last := i64Ptr(1000)

	prev := e.TimeLockRemaining(last, DefaultCooldownSeconds, 1000)
	for now := int64(1001); now <= 1000+DefaultCooldownSeconds+10; now += 100 {
		cur := e.TimeLockRemaining(last, DefaultCooldownSeconds, now)
		if cur > prev {
			t.Fatalf("remaining increased from %d to %d at now=%d", prev, cur, now)
		}
		prev = cur
	}
	if prev != 0 {
		t.Errorf("remaining after cooldown = %d, want 0", prev)
	}
}

func TestComputeFee(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name    string
		amount  uint64
		bp      uint16
		wantFee uint64
		wantNet uint64
	}{
		{"fifty bp", 1_000_000, 50, 5_000, 995_000},
		{"zero fee", 1_000_000, 0, 0, 1_000_000},
		{"zero amount", 0, 50, 0, 0},
		{"rounds down", 999, 50, 4, 995},
		{"full amount", 100, 10_000, 100, 0},
		{"max amount no overflow", 1<<64 - 1, 10_000, 1<<64 - 1, 0},
		{"over-denominator bp clamped", 1_000_000, 20_000, 1_000_000, 0},
		{"over-denominator bp large amount", 1 << 63, 20_000, 1 << 63, 0},
		{"max bp max amount", 1<<64 - 1, 1<<16 - 1, 1<<64 - 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, net := e.ComputeFee(tt.amount, tt.bp)
			if fee != tt.wantFee || net != tt.wantNet {
				t.Errorf("ComputeFee(%d, %d) = %d, %d; want %d, %d",
					tt.amount, tt.bp, fee, net, tt.wantFee, tt.wantNet)
			}
			if fee+net != tt.amount {
				t.Errorf("fee+net = %d, want %d", fee+net, tt.amount)
			}
		})
	}
}

func TestFeeBasisPoints(t *testing.T) {
	e := NewEngine()
	if got := e.FeeBasisPoints(nil); got != 0 {
		t.Errorf("FeeBasisPoints(nil) = %d, want 0", got)
	}
	if got := e.FeeBasisPoints(&domain.ProtocolConfig{FeeBasisPoints: 75}); got != 75 {
		t.Errorf("FeeBasisPoints() = %d, want 75", got)
	}
}

func TestVotingProgress(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name          string
		votes         uint32
		threshold     uint32
		wantPct       float64
		wantRemaining uint32
	}{
		{"zero votes", 0, 2, 0, 2},
		{"halfway", 1, 2, 50, 1},
		{"at threshold", 2, 2, 100, 0},
		{"above threshold capped", 5, 2, 100, 0},
		{"zero threshold", 3, 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, remaining := e.VotingProgress(tt.votes, tt.threshold)
			if pct != tt.wantPct || remaining != tt.wantRemaining {
				t.Errorf("VotingProgress(%d, %d) = %v, %d; want %v, %d",
					tt.votes, tt.threshold, pct, remaining, tt.wantPct, tt.wantRemaining)
			}
		})
	}
}
