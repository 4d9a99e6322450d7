package wager

import (
	"context"

	"github.com/fanstake/squad-ledger/internal/domain/access"
)

// Ledger is the squad table plus its derived index structures. Writes keep
// the indices consistent with the table: Append registers the new dense index
// under the slot, user-league, and round keys; Replace updates the squad at an
// existing index in place without touching any index structure.
type Ledger interface {
	// Append stores a new squad and returns its dense zero-based index.
	Append(ctx context.Context, squad Squad) (int, error)

	// Replace overwrites the squad at index. The squad's identifying keys
	// must match the stored entry.
	Replace(ctx context.Context, index int, squad Squad) error

	GetByIndex(ctx context.Context, index int) (Squad, bool, error)
	Count(ctx context.Context) (int, error)

	// SlotIndex resolves the latest funding index for one identity's
	// (season, league, round) slot.
	SlotIndex(ctx context.Context, key SlotKey) (int, bool, error)

	// ListIndexesByUserLeague returns every squad index the identity ever
	// created for a season+league, in creation order.
	ListIndexesByUserLeague(ctx context.Context, user access.Address, seasonID, leagueID int64) ([]int, error)

	// ListIndexesByRound returns every squad index registered under a round,
	// in creation order.
	ListIndexesByRound(ctx context.Context, key RoundKey) ([]int, error)

	// RoundAggregate returns the running validated count and stake sum.
	RoundAggregate(ctx context.Context, key RoundKey) (RoundAggregate, error)

	// AddValidatedStake is the single mutation path into the round
	// aggregates, invoked exactly once per squad reaching Validated.
	AddValidatedStake(ctx context.Context, key RoundKey, stakeWei uint64) error
}
