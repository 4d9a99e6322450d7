package ticket

import (
	"time"

	"github.com/fanstake/squad-ledger/internal/domain/access"
)

// Status is the lifecycle state of a support ticket.
type Status uint8

const (
	StatusUninitialized Status = iota
	StatusOpen
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Message is one (author, body) entry in a ticket thread.
type Message struct {
	Author access.Address
	Body   string
}

// Ticket is a support thread raised by a squad owner. Tickets are addressed
// by a dense zero-based index and are never deleted; Closed is terminal.
type Ticket struct {
	SquadIndex  int
	UserAddress access.Address
	Status      Status
	Messages    []Message

	CreatedAt     time.Time
	ClosedAt      time.Time
	LastUpdatedAt time.Time
}
