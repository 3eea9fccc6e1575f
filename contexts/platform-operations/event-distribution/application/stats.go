package application

import "sync/atomic"

// busStats holds the bus-wide counters. All fields are atomics so producers,
// the drain loop, and pool workers update them without a shared lock.
type busStats struct {
	published       atomic.Uint64
	publishedAsync  atomic.Uint64
	persisted       atomic.Uint64
	persistFailures atomic.Uint64
	dropped         atomic.Uint64
	handled         atomic.Uint64
	handlerErrors   atomic.Uint64
	panics          atomic.Uint64
	timeouts        atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the bus counters.
type StatsSnapshot struct {
	Published       uint64
	PublishedAsync  uint64
	Persisted       uint64
	PersistFailures uint64
	Dropped         uint64
	Handled         uint64
	HandlerErrors   uint64
	Panics          uint64
	Timeouts        uint64
}

func (s *busStats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Published:       s.published.Load(),
		PublishedAsync:  s.publishedAsync.Load(),
		Persisted:       s.persisted.Load(),
		PersistFailures: s.persistFailures.Load(),
		Dropped:         s.dropped.Load(),
		Handled:         s.handled.Load(),
		HandlerErrors:   s.handlerErrors.Load(),
		Panics:          s.panics.Load(),
		Timeouts:        s.timeouts.Load(),
	}
}
