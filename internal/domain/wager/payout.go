package wager

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/fanstake/squad-ledger/internal/domain/access"
)

// ErrPayoutOverflow reports a computed payout that no longer fits the uint64
// wei word carried on squads and treasury credits.
var ErrPayoutOverflow = errors.New("payout overflows uint64 wei")

// RoundTotals are the settled stake pools of one round: the stakes of every
// member in Win or Redeemed, and the stakes of every member in Lose. Totals
// are carried as big integers so intermediate basis-point products cannot
// overflow at wei scale.
type RoundTotals struct {
	WinSum  *big.Int
	LoseSum *big.Int
}

// NewRoundTotals folds squad stakes into win/lose pools by status.
func NewRoundTotals(squads []Squad) RoundTotals {
	totals := RoundTotals{
		WinSum:  new(big.Int),
		LoseSum: new(big.Int),
	}
	stake := new(big.Int)
	for _, s := range squads {
		switch s.Status {
		case StatusWin, StatusRedeemed:
			totals.WinSum.Add(totals.WinSum, stake.SetUint64(s.StakeWei))
		case StatusLose:
			totals.LoseSum.Add(totals.LoseSum, stake.SetUint64(s.StakeWei))
		}
	}
	return totals
}

var bpsScale = big.NewInt(access.BasisPoints)

// WinPayout computes the proportional payout for one winning stake.
//
// When the losing pool exceeds the winning pool the payout is capped at twice
// the stake. Otherwise the losing pool is shared pro rata at basis-point
// precision; every multiply and divide truncates toward zero. An empty winning
// pool is floored to 1 wei to keep the division defined; that branch is not a
// modeled business case since the querying squad's own stake is always part of
// the winning pool. Returns ErrPayoutOverflow when the result exceeds the
// uint64 wei range instead of wrapping.
func WinPayout(stakeWei uint64, totals RoundTotals) (uint64, error) {
	winSum := new(big.Int).Set(totals.WinSum)
	if winSum.Sign() == 0 {
		winSum.SetUint64(1)
	}

	stake := new(big.Int).SetUint64(stakeWei)
	if totals.LoseSum.Cmp(winSum) > 0 {
		return payoutWei(new(big.Int).Lsh(stake, 1))
	}

	ratio := new(big.Int).Mul(totals.LoseSum, bpsScale)
	ratio.Quo(ratio, winSum)

	bonus := new(big.Int).Mul(stake, ratio)
	bonus.Quo(bonus, bpsScale)

	return payoutWei(bonus.Add(stake, bonus))
}

func payoutWei(payout *big.Int) (uint64, error) {
	if !payout.IsUint64() {
		return 0, fmt.Errorf("%w: %s wei", ErrPayoutOverflow, payout)
	}
	return payout.Uint64(), nil
}

// SplitPlatformFee derives the basis-point platform fee from a computed win
// sum. The net amount falls back to previousNetWei if the fee would consume
// the whole win sum, an underflow guard rather than a business rule.
func SplitPlatformFee(winSumWei uint64, feeRateBps uint32, previousNetWei uint64) (feeWei, netWei uint64) {
	fee := new(big.Int).SetUint64(winSumWei)
	fee.Mul(fee, big.NewInt(int64(feeRateBps)))
	fee.Quo(fee, bpsScale)

	feeWei = fee.Uint64()
	if feeWei >= winSumWei {
		return feeWei, previousNetWei
	}
	return feeWei, winSumWei - feeWei
}
