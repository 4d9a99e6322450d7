package wager

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRosterSize = errors.New("invalid roster size")
	ErrZeroStake         = errors.New("stake must be greater than zero")
)

// ValidateFunding checks the shape of a funding request: exactly RosterSize
// starters, exactly BenchSize bench players, and a positive attached stake.
// Captain membership in the roster is deliberately not checked; that rule is
// enforced by the oracle at resolution time.
func ValidateFunding(playerIDs, benchPlayerIDs []int64, stakeWei uint64) error {
	if len(playerIDs) != RosterSize {
		return fmt.Errorf("%w: expected %d players, got %d", ErrInvalidRosterSize, RosterSize, len(playerIDs))
	}
	if len(benchPlayerIDs) != BenchSize {
		return fmt.Errorf("%w: expected %d bench players, got %d", ErrInvalidRosterSize, BenchSize, len(benchPlayerIDs))
	}
	if stakeWei == 0 {
		return ErrZeroStake
	}
	return nil
}
