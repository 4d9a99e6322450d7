package archive

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fanstake/squad-ledger/internal/domain/wager"
	"github.com/fanstake/squad-ledger/internal/platform/logging"
)

type collectSink struct {
	mu     sync.Mutex
	events []wager.SettlementEvent
	err    error
}

func (s *collectSink) Insert(_ context.Context, event wager.SettlementEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *collectSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestWorker_RecordExportsAllEvents(t *testing.T) {
	sink := &collectSink{}
	worker, err := NewWorker(sink, 2, time.Second, logging.NewNop())
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}

	const events = 50
	for i := 0; i < events; i++ {
		worker.Record(wager.SettlementEvent{
			Kind:       wager.SettlementRefund,
			SquadIndex: i,
			AmountWei:  uint64(i) * 100,
		})
	}
	worker.Close()

	if got := sink.count(); got != events {
		t.Fatalf("expected %d archived events, got %d", events, got)
	}
}

func TestWorker_InsertFailureIsSwallowed(t *testing.T) {
	sink := &collectSink{err: fmt.Errorf("archive db down")}
	worker, err := NewWorker(sink, 1, time.Second, logging.NewNop())
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}

	// Must not panic or block the caller.
	worker.Record(wager.SettlementEvent{Kind: wager.SettlementRedeem, SquadIndex: 0, AmountWei: 100})
	worker.Close()

	if got := sink.count(); got != 0 {
		t.Fatalf("expected no archived events, got %d", got)
	}
}
