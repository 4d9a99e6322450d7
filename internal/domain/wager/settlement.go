package wager

import (
	"time"

	"github.com/fanstake/squad-ledger/internal/domain/access"
)

// SettlementKind labels an external value movement recorded by the ledger.
type SettlementKind string

const (
	SettlementRefund SettlementKind = "refund"
	SettlementRedeem SettlementKind = "redeem"
)

// SettlementEvent is the audit record of a refund or redemption, exported to
// the settlement archive. The archive is a downstream copy; the ledger is the
// source of truth.
type SettlementEvent struct {
	Kind       SettlementKind
	SquadIndex int
	User       access.Address
	SeasonID   int64
	LeagueID   int64
	RoundID    int64

	// AmountWei is the stake refunded or the net win sum credited.
	AmountWei uint64
	// FeeWei is the platform fee taken on redemption, zero for refunds.
	FeeWei uint64

	OccurredAt time.Time
}
