package resilience

import "sync"

// SingleFlight collapses concurrent calls sharing a key into one execution;
// callers that join a running call block until it resolves and receive its
// result. The cache layer uses this so a single round-summary rebuild serves
// every concurrent reader of that round.
type SingleFlight struct {
	mu       sync.Mutex
	inflight map[string]*flightResult
}

type flightResult struct {
	done chan struct{}
	val  any
	err  error
}

// Do runs fn at most once per key at a time. The bool reports whether the
// caller joined an execution started by another goroutine.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	g.mu.Lock()
	if g.inflight == nil {
		g.inflight = make(map[string]*flightResult)
	}
	if existing, ok := g.inflight[key]; ok {
		g.mu.Unlock()
		<-existing.done
		return existing.val, existing.err, true
	}

	res := &flightResult{done: make(chan struct{})}
	g.inflight[key] = res
	g.mu.Unlock()

	res.val, res.err = fn()
	close(res.done)

	g.mu.Lock()
	delete(g.inflight, key)
	g.mu.Unlock()

	return res.val, res.err, false
}
