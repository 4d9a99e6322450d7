package archive

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/fanstake/squad-ledger/internal/domain/wager"
	"github.com/fanstake/squad-ledger/internal/platform/logging"
)

// Sink is where archived settlement events land.
type Sink interface {
	Insert(ctx context.Context, event wager.SettlementEvent) error
}

// Worker exports settlement events to the archive asynchronously through a
// bounded goroutine pool. Export is best-effort: a failed insert is logged
// and dropped, never propagated back into the ledger path.
type Worker struct {
	sink    Sink
	pool    *ants.Pool
	wg      conc.WaitGroup
	timeout time.Duration
	logger  *logging.Logger
}

func NewWorker(sink Sink, poolSize int, insertTimeout time.Duration, logger *logging.Logger) (*Worker, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if poolSize < 1 {
		poolSize = 1
	}
	if insertTimeout <= 0 {
		insertTimeout = 5 * time.Second
	}

	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	return &Worker{
		sink:    sink,
		pool:    pool,
		timeout: insertTimeout,
		logger:  logger,
	}, nil
}

// Record submits the event for export. Never blocks the caller: when the
// pool is saturated the event is exported inline on a fresh goroutine owned
// by the worker's wait group.
func (w *Worker) Record(event wager.SettlementEvent) {
	submit := func() { w.export(event) }
	if err := w.pool.Submit(submit); err != nil {
		w.wg.Go(submit)
	}
}

// Close drains in-flight exports and releases the pool.
func (w *Worker) Close() {
	w.wg.Wait()
	if err := w.pool.ReleaseTimeout(w.timeout); err != nil {
		w.logger.Warn("archive pool release timed out", "error", err)
	}
}

func (w *Worker) export(event wager.SettlementEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.sink.Insert(ctx, event); err != nil {
		w.logger.Error("settlement archive export failed",
			"kind", string(event.Kind),
			"squad_index", event.SquadIndex,
			"error", err,
		)
		return
	}

	w.logger.Debug("settlement event archived",
		"kind", string(event.Kind),
		"squad_index", event.SquadIndex,
		"amount_wei", event.AmountWei,
	)
}
