package wager

import (
	"errors"
	"testing"
)

const tenthEtherWei = uint64(100_000_000_000_000_000)

// tenEtherWei is large enough that doubling it leaves the uint64 range.
const tenEtherWei = uint64(10_000_000_000_000_000_000)

func poolSquad(status Status, stakeWei uint64) Squad {
	return Squad{Status: status, StakeWei: stakeWei, Initialized: true}
}

func mustWinPayout(t *testing.T, stakeWei uint64, totals RoundTotals) uint64 {
	t.Helper()
	got, err := WinPayout(stakeWei, totals)
	if err != nil {
		t.Fatalf("win payout: %v", err)
	}
	return got
}

func TestNewRoundTotals_FoldsByStatus(t *testing.T) {
	totals := NewRoundTotals([]Squad{
		poolSquad(StatusWin, 100),
		poolSquad(StatusRedeemed, 50),
		poolSquad(StatusLose, 70),
		poolSquad(StatusValidated, 999),
		poolSquad(StatusToBeValidated, 999),
		poolSquad(StatusInvalidRound, 999),
	})

	if totals.WinSum.Uint64() != 150 {
		t.Fatalf("expected win sum 150, got %s", totals.WinSum)
	}
	if totals.LoseSum.Uint64() != 70 {
		t.Fatalf("expected lose sum 70, got %s", totals.LoseSum)
	}
}

func TestWinPayout_EqualPoolsDoubleStake(t *testing.T) {
	totals := NewRoundTotals([]Squad{
		poolSquad(StatusWin, tenthEtherWei),
		poolSquad(StatusLose, tenthEtherWei),
	})

	got := mustWinPayout(t, tenthEtherWei, totals)
	if got != 2*tenthEtherWei {
		t.Fatalf("expected payout %d, got %d", 2*tenthEtherWei, got)
	}
}

func TestWinPayout_LosePoolLargerCappedAtTwiceStake(t *testing.T) {
	totals := NewRoundTotals([]Squad{
		poolSquad(StatusWin, tenthEtherWei),
		poolSquad(StatusLose, 3*tenthEtherWei),
	})

	got := mustWinPayout(t, tenthEtherWei, totals)
	if got != 2*tenthEtherWei {
		t.Fatalf("expected capped payout %d, got %d", 2*tenthEtherWei, got)
	}
}

func TestWinPayout_NoLosersReturnsStake(t *testing.T) {
	totals := NewRoundTotals([]Squad{
		poolSquad(StatusWin, tenthEtherWei),
	})

	got := mustWinPayout(t, tenthEtherWei, totals)
	if got != tenthEtherWei {
		t.Fatalf("expected stake back %d, got %d", tenthEtherWei, got)
	}
}

func TestWinPayout_RatioTruncates(t *testing.T) {
	// lose=1, win=3: ratio truncates to 3333 bps.
	totals := NewRoundTotals([]Squad{
		poolSquad(StatusWin, 30_000),
		poolSquad(StatusLose, 10_000),
	})

	got := mustWinPayout(t, 30_000, totals)
	want := uint64(30_000 + 30_000*3333/10_000)
	if got != want {
		t.Fatalf("expected payout %d, got %d", want, got)
	}
}

func TestWinPayout_SharedProRataAcrossWinners(t *testing.T) {
	totals := NewRoundTotals([]Squad{
		poolSquad(StatusWin, 3*tenthEtherWei),
		poolSquad(StatusWin, tenthEtherWei),
		poolSquad(StatusLose, 2*tenthEtherWei),
	})

	// ratio = 2/4 = 5000 bps for every winner.
	if got := mustWinPayout(t, 3*tenthEtherWei, totals); got != 3*tenthEtherWei+3*tenthEtherWei/2 {
		t.Fatalf("unexpected payout for large stake: %d", got)
	}
	if got := mustWinPayout(t, tenthEtherWei, totals); got != tenthEtherWei+tenthEtherWei/2 {
		t.Fatalf("unexpected payout for small stake: %d", got)
	}
}

func TestWinPayout_EmptyWinPoolFlooredToOne(t *testing.T) {
	totals := NewRoundTotals([]Squad{
		poolSquad(StatusLose, 10),
	})

	// lose pool (10) > floored win pool (1): capped branch.
	if got := mustWinPayout(t, 7, totals); got != 14 {
		t.Fatalf("expected capped payout 14, got %d", got)
	}
}

func TestWinPayout_CappedPayoutPastUint64ReturnsError(t *testing.T) {
	// Losers outweigh winners, so the 10 ETH stake doubles past MaxUint64.
	totals := NewRoundTotals([]Squad{
		poolSquad(StatusWin, tenEtherWei),
		poolSquad(StatusLose, tenEtherWei),
		poolSquad(StatusLose, tenEtherWei),
	})

	if _, err := WinPayout(tenEtherWei, totals); !errors.Is(err, ErrPayoutOverflow) {
		t.Fatalf("expected ErrPayoutOverflow, got %v", err)
	}
}

func TestWinPayout_RatioPayoutPastUint64ReturnsError(t *testing.T) {
	// Equal 10 ETH pools: the 10000 bps ratio doubles the stake past MaxUint64.
	totals := NewRoundTotals([]Squad{
		poolSquad(StatusWin, tenEtherWei),
		poolSquad(StatusLose, tenEtherWei),
	})

	if _, err := WinPayout(tenEtherWei, totals); !errors.Is(err, ErrPayoutOverflow) {
		t.Fatalf("expected ErrPayoutOverflow, got %v", err)
	}
}

func TestSplitPlatformFee_TenPercent(t *testing.T) {
	fee, net := SplitPlatformFee(tenthEtherWei, 1000, 0)
	if fee != tenthEtherWei/10 {
		t.Fatalf("expected fee %d, got %d", tenthEtherWei/10, fee)
	}
	if net != tenthEtherWei-tenthEtherWei/10 {
		t.Fatalf("expected net %d, got %d", tenthEtherWei-tenthEtherWei/10, net)
	}
}

func TestSplitPlatformFee_ZeroRate(t *testing.T) {
	fee, net := SplitPlatformFee(tenthEtherWei, 0, 0)
	if fee != 0 || net != tenthEtherWei {
		t.Fatalf("expected fee 0 and full net, got fee=%d net=%d", fee, net)
	}
}

func TestSplitPlatformFee_FullRateKeepsPreviousNet(t *testing.T) {
	fee, net := SplitPlatformFee(1000, 10_000, 42)
	if fee != 1000 {
		t.Fatalf("expected fee 1000, got %d", fee)
	}
	if net != 42 {
		t.Fatalf("expected previous net preserved, got %d", net)
	}
}
