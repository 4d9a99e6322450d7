package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// Squad ledger failures.
	ErrInvalidState           = errors.New("invalid squad state")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidRosterSize      = errors.New("invalid roster size")
	ErrZeroStake              = errors.New("zero stake")
	ErrAlreadyFunded          = errors.New("slot already funded")
	ErrRoundNotFinalized      = errors.New("round not finalized")
	ErrUnknownSquad           = errors.New("unknown squad")

	// Role and identity failures.
	ErrZeroAddress   = errors.New("zero address")
	ErrInvalidAuthor = errors.New("invalid message author")

	// Ticket failures.
	ErrInvalidTicketIndex = errors.New("invalid ticket index")
	ErrMessageNotFound    = errors.New("message not found")
)
