package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fanstake/squad-ledger/internal/domain/ticket"
)

// TicketStore is the in-memory ticket table, dense-indexed in creation order.
type TicketStore struct {
	mu      sync.RWMutex
	tickets []ticket.Ticket
}

func NewTicketStore() *TicketStore {
	return &TicketStore{}
}

func (s *TicketStore) Append(_ context.Context, t ticket.Ticket) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := len(s.tickets)
	s.tickets = append(s.tickets, cloneTicket(t))
	return index, nil
}

func (s *TicketStore) Replace(_ context.Context, index int, t ticket.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.tickets) {
		return fmt.Errorf("ticket index %d out of range [0,%d)", index, len(s.tickets))
	}
	s.tickets[index] = cloneTicket(t)
	return nil
}

func (s *TicketStore) GetByIndex(_ context.Context, index int) (ticket.Ticket, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.tickets) {
		return ticket.Ticket{}, false, nil
	}
	return cloneTicket(s.tickets[index]), true, nil
}

func (s *TicketStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tickets), nil
}

func cloneTicket(t ticket.Ticket) ticket.Ticket {
	copied := t
	copied.Messages = append([]ticket.Message(nil), t.Messages...)
	return copied
}
