package wager

import (
	"math/big"
	"time"

	"github.com/fanstake/squad-ledger/internal/domain/access"
)

const (
	// RosterSize is the required number of starting players per squad.
	RosterSize = 11
	// BenchSize is the required number of bench players per squad.
	BenchSize = 4
)

// Squad is a single staked entry belonging to one identity for one
// season/league/round. Squads are addressed by a dense zero-based index
// assigned at creation in insertion order and are never deleted; terminal
// statuses are permanent markers.
type Squad struct {
	SeasonID int64
	LeagueID int64
	RoundID  int64

	CaptainID      int64
	PlayerIDs      []int64
	BenchPlayerIDs []int64

	// StakeWei is the amount attached at funding time, in wei.
	StakeWei uint64

	Status Status

	// Initialized distinguishes a funded entry from one whose stake was
	// refunded on invalidation.
	Initialized bool

	UserAddress access.Address

	// WinSumWei and PlatformFeeWei are populated at redemption only.
	WinSumWei      uint64
	PlatformFeeWei uint64

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// RoundKey identifies the pool over which stakes are settled.
type RoundKey struct {
	SeasonID int64
	LeagueID int64
	RoundID  int64
}

// SlotKey identifies the single funding slot one identity holds per round.
type SlotKey struct {
	User     access.Address
	SeasonID int64
	LeagueID int64
	RoundID  int64
}

func (s Squad) RoundKey() RoundKey {
	return RoundKey{SeasonID: s.SeasonID, LeagueID: s.LeagueID, RoundID: s.RoundID}
}

func (s Squad) SlotKey() SlotKey {
	return SlotKey{User: s.UserAddress, SeasonID: s.SeasonID, LeagueID: s.LeagueID, RoundID: s.RoundID}
}

// RoundAggregate is the running view of a round maintained at validation
// time: how many members reached Validated and the exact sum of their stakes.
// The stake sum is a big integer; a round's wei total can exceed uint64.
type RoundAggregate struct {
	ValidatedCount int
	ValidatedStake *big.Int
}
