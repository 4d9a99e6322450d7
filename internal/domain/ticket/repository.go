package ticket

import "context"

// Store is the ticket table. Tickets are dense-indexed in creation order.
type Store interface {
	Append(ctx context.Context, t Ticket) (int, error)
	Replace(ctx context.Context, index int, t Ticket) error
	GetByIndex(ctx context.Context, index int) (Ticket, bool, error)
	Count(ctx context.Context) (int, error)
}
