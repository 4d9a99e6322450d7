package memory

import (
	"strings"
	"testing"
	"time"

	"github.com/fanstake/squad-ledger/internal/domain/ticket"
)

func testTicket(squadIndex int) ticket.Ticket {
	return ticket.Ticket{
		SquadIndex:  squadIndex,
		UserAddress: "0xa",
		Status:      ticket.StatusOpen,
		Messages: []ticket.Message{
			{Author: "0xa", Body: "opening message"},
		},
		CreatedAt: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestTicketStore_AppendAndLookup(t *testing.T) {
	store := NewTicketStore()

	first, err := store.Append(t.Context(), testTicket(0))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	second, err := store.Append(t.Context(), testTicket(1))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first != 0 || second != 1 {
		t.Fatalf("expected dense indexes 0,1, got %d,%d", first, second)
	}

	count, _ := store.Count(t.Context())
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}

	got, ok, err := store.GetByIndex(t.Context(), second)
	if err != nil || !ok {
		t.Fatalf("get: ok=%t err=%v", ok, err)
	}
	if got.SquadIndex != 1 {
		t.Fatalf("unexpected ticket: %+v", got)
	}

	if _, ok, _ := store.GetByIndex(t.Context(), 2); ok {
		t.Fatal("expected miss past the end")
	}
}

func TestTicketStore_ReplaceBoundsChecked(t *testing.T) {
	store := NewTicketStore()
	index, _ := store.Append(t.Context(), testTicket(0))

	if err := store.Replace(t.Context(), index+1, testTicket(0)); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out of range error, got %v", err)
	}

	updated := testTicket(0)
	updated.Status = ticket.StatusClosed
	if err := store.Replace(t.Context(), index, updated); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _, _ := store.GetByIndex(t.Context(), index)
	if got.Status != ticket.StatusClosed {
		t.Fatalf("replace not persisted: %+v", got)
	}
}

func TestTicketStore_MessagesAreIsolatedFromCallers(t *testing.T) {
	store := NewTicketStore()

	in := testTicket(0)
	index, _ := store.Append(t.Context(), in)

	in.Messages[0].Body = "tampered"
	got, _, _ := store.GetByIndex(t.Context(), index)
	if got.Messages[0].Body != "opening message" {
		t.Fatalf("stored ticket aliases caller slice: %q", got.Messages[0].Body)
	}

	got.Messages[0].Body = "tampered again"
	again, _, _ := store.GetByIndex(t.Context(), index)
	if again.Messages[0].Body != "opening message" {
		t.Fatalf("returned ticket aliases store: %q", again.Messages[0].Body)
	}
}
