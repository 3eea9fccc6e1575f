package ports

import (
	"context"
	"time"

	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/entities"
)

// Handler is the consumer-side contract: one event in, an error out. Handlers
// run under a cancellable context and must not assume exclusive access to
// shared external resources without their own locking.
type Handler func(ctx context.Context, event entities.Event) error

// Filter is a pure predicate evaluated inline during dispatch resolution
// under a read lock. It must be fast, side-effect free, and non-blocking.
type Filter func(event entities.Event) bool

// ReplayHandler receives stored events during an explicit replay, oldest
// first. Returning an error aborts the replay at that event.
type ReplayHandler func(ctx context.Context, event entities.StoredEvent) error

// EventStore is the append-only durable log of published envelopes, used for
// audit and replay rather than real-time delivery. Paginated queries return
// newest-first; replay pages oldest-first.
type EventStore interface {
	Save(ctx context.Context, event entities.Event) error
	GetByID(ctx context.Context, id string) (entities.StoredEvent, error)
	GetByType(ctx context.Context, eventType string, limit, offset int) ([]entities.StoredEvent, error)
	GetByTimeRange(ctx context.Context, from, to time.Time, limit, offset int) ([]entities.StoredEvent, error)
	GetByTypeAndTimeRange(ctx context.Context, eventType string, from, to time.Time, limit, offset int) ([]entities.StoredEvent, error)
	Replay(ctx context.Context, from time.Time, handler ReplayHandler) error
	ReplayByType(ctx context.Context, eventType string, from time.Time, handler ReplayHandler) error
	CleanupOldEvents(ctx context.Context, before time.Time) (int64, error)
	CountByType(ctx context.Context, eventType string) (int64, error)
	CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error)
}

// Clock allows deterministic testing of retention/cutoff rules.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts subscription identifier generation.
type IDGenerator interface {
	NewID() string
}
