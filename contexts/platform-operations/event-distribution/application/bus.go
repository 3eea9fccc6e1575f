package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/entities"
	domainerrors "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/errors"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/ports"
)

// Store writes on the async path run detached from any caller, so they get
// their own bounded context.
const persistTimeout = 5 * time.Second

// EventBus is the façade coordinating the subscription registry, the event
// store, the worker pool, and the async intake queue. It owns all of them for
// its running lifetime.
//
// Publish delivers on the caller's execution path and returns the first
// handler error. PublishAsync never blocks: it enqueues or drops. Persistence
// is best-effort on both paths; a successful publish does not imply the event
// is visible in replay.
type EventBus struct {
	cfg      BusConfig
	registry *Registry
	store    ports.EventStore
	stats    busStats
	logger   *slog.Logger

	mu        sync.RWMutex
	running   bool
	pool      *WorkerPool
	intake    chan entities.Event
	stopCh    chan struct{}
	drainDone chan struct{}
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}

func NewEventBus(cfg BusConfig, store ports.EventStore, ids ports.IDGenerator, logger *slog.Logger) *EventBus {
	if ids == nil {
		ids = uuidGenerator{}
	}
	return &EventBus{
		cfg:      cfg.withDefaults(),
		registry: NewRegistry(ids),
		store:    store,
		logger:   ResolveLogger(logger),
	}
}

// Start transitions the bus to running: workers come up and the intake drain
// loop begins forwarding async events into the pool. Starting a running bus
// is a no-op.
func (b *EventBus) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return nil
	}

	b.pool = newWorkerPool(b.cfg, &b.stats, b.logger)
	b.pool.start(b.cfg.WorkerPoolSize)
	b.intake = make(chan entities.Event, b.cfg.BufferSize)
	b.stopCh = make(chan struct{})
	b.drainDone = make(chan struct{})
	go b.drainLoop(b.intake, b.stopCh, b.drainDone, b.pool)
	b.running = true

	b.logger.Info("event bus started",
		"event", "event_bus_started",
		"module", "platform-operations/event-distribution",
		"layer", "application",
		"worker_pool_size", b.cfg.WorkerPoolSize,
		"buffer_size", b.cfg.BufferSize,
	)
	return nil
}

// Stop cancels the drain loop, waits for it to flush the intake queue, then
// shuts down the worker pool, all bounded by the caller's deadline. Exceeding
// the deadline yields ErrShutdownTimeout instead of blocking; the bus is
// marked stopped either way. Stopping a stopped bus is a no-op.
func (b *EventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	stopCh := b.stopCh
	drainDone := b.drainDone
	pool := b.pool
	b.mu.Unlock()

	close(stopCh)

	select {
	case <-drainDone:
	case <-ctx.Done():
		b.registry.Clear()
		b.logger.Warn("event bus stopped with timeout",
			"event", "event_bus_stop_timeout",
			"module", "platform-operations/event-distribution",
			"layer", "application",
			"phase", "drain",
		)
		return domainerrors.ErrShutdownTimeout
	}

	err := pool.Stop(ctx)
	b.registry.Clear()
	if errors.Is(err, domainerrors.ErrShutdownTimeout) {
		b.logger.Warn("event bus stopped with timeout",
			"event", "event_bus_stop_timeout",
			"module", "platform-operations/event-distribution",
			"layer", "application",
			"phase", "worker_pool",
		)
		return err
	}

	b.logger.Info("event bus stopped",
		"event", "event_bus_stopped",
		"module", "platform-operations/event-distribution",
		"layer", "application",
	)
	return nil
}

func (b *EventBus) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// Publish delivers the event to every matching subscription on the caller's
// execution path, in priority then registration order. The first handler
// error is returned; subsequent handler errors are logged only. A store
// failure never aborts delivery.
func (b *EventBus) Publish(ctx context.Context, event entities.Event) error {
	if event == nil {
		return domainerrors.ErrNilEvent
	}
	if !b.IsRunning() {
		return domainerrors.ErrBusStopped
	}

	b.stats.published.Add(1)
	b.persist(ctx, event)

	var firstErr error
	for _, sub := range b.registry.Match(event) {
		err := b.invoke(ctx, sub, event)
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
			continue
		}
		b.logger.Error("additional handler error during publish",
			"event", "event_handler_failed",
			"module", "platform-operations/event-distribution",
			"layer", "application",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"subscription_id", sub.ID,
			"error", err.Error(),
		)
	}
	return firstErr
}

// PublishAsync offers the event to the bounded intake queue and returns
// immediately. When the bus is stopped or the queue is full the event is
// dropped, logged, and counted; the producer is never blocked and never sees
// an error.
func (b *EventBus) PublishAsync(event entities.Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	running := b.running
	intake := b.intake
	b.mu.RUnlock()

	if !running {
		b.stats.dropped.Add(1)
		b.logger.Warn("bus not running, dropping async event",
			"event", "event_async_dropped",
			"module", "platform-operations/event-distribution",
			"layer", "application",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"reason", "bus_stopped",
		)
		return
	}

	select {
	case intake <- event:
		b.stats.publishedAsync.Add(1)
	default:
		b.stats.dropped.Add(1)
		b.logger.Warn("intake queue full, dropping async event",
			"event", "event_async_dropped",
			"module", "platform-operations/event-distribution",
			"layer", "application",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"reason", "queue_full",
		)
	}
}

// Subscribe registers a handler for exact matches of eventType at normal
// priority and returns the subscription id for later removal.
func (b *EventBus) Subscribe(eventType string, handler ports.Handler) (string, error) {
	return b.registry.Subscribe(eventType, PriorityNormal, nil, handler)
}

// SubscribeWithFilter registers a handler invoked only for events of
// eventType that the filter accepts.
func (b *EventBus) SubscribeWithFilter(eventType string, filter ports.Filter, handler ports.Handler) (string, error) {
	return b.registry.Subscribe(eventType, PriorityNormal, filter, handler)
}

// Unsubscribe removes a subscription by id. Unknown ids, including ids
// already removed once, return ErrSubscriptionNotFound.
func (b *EventBus) Unsubscribe(id string) error {
	return b.registry.Unsubscribe(id)
}

// Stats returns a snapshot of the bus counters. With metrics disabled in the
// configuration the snapshot is empty.
func (b *EventBus) Stats() StatsSnapshot {
	if !b.cfg.EnableMetrics {
		return StatsSnapshot{}
	}
	return b.stats.snapshot()
}

// SubscriptionCount reports the number of live subscriptions.
func (b *EventBus) SubscriptionCount() int {
	return b.registry.Count()
}

func (b *EventBus) drainLoop(intake chan entities.Event, stopCh, drainDone chan struct{}, pool *WorkerPool) {
	defer close(drainDone)
	for {
		select {
		case <-stopCh:
			b.drainRemaining(intake)
			return
		case event := <-intake:
			b.dispatchAsync(pool, event)
		}
	}
}

func (b *EventBus) dispatchAsync(pool *WorkerPool, event entities.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	b.persist(ctx, event)
	cancel()

	for _, sub := range b.registry.Match(event) {
		pool.Submit(workItem{event: event, sub: sub})
	}
}

// drainRemaining flushes whatever is still sitting in the intake queue at
// shutdown, delivering synchronously since the pool is about to stop.
// Best-effort: handler failures are logged, not retried.
func (b *EventBus) drainRemaining(intake chan entities.Event) {
	for {
		select {
		case event := <-intake:
			ctx, cancel := context.WithTimeout(context.Background(), b.cfg.ProcessTimeout)
			b.persist(ctx, event)
			for _, sub := range b.registry.Match(event) {
				if err := b.invoke(ctx, sub, event); err != nil {
					b.logger.Error("handler failed during shutdown drain",
						"event", "event_drain_handler_failed",
						"module", "platform-operations/event-distribution",
						"layer", "application",
						"event_id", event.EventID(),
						"event_type", event.EventType(),
						"subscription_id", sub.ID,
						"error", err.Error(),
					)
				}
			}
			cancel()
		default:
			return
		}
	}
}

// persist appends the event to the store when persistence is enabled.
// Failures are logged and counted, never propagated: delivery is the primary
// contract, persistence an auxiliary one.
func (b *EventBus) persist(ctx context.Context, event entities.Event) {
	if !b.cfg.EnablePersist || b.store == nil {
		return
	}
	if err := b.store.Save(ctx, event); err != nil {
		b.stats.persistFailures.Add(1)
		b.logger.Error("event persistence failed",
			"event", "event_persist_failed",
			"module", "platform-operations/event-distribution",
			"layer", "application",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"error", err.Error(),
		)
		return
	}
	b.stats.persisted.Add(1)
}

// invoke runs one handler inline, recovering panics so a misbehaving
// consumer cannot take down the publisher.
func (b *EventBus) invoke(ctx context.Context, sub Subscription, event entities.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			b.stats.panics.Add(1)
			b.logger.Error("handler panic recovered",
				"event", "event_handler_panic",
				"module", "platform-operations/event-distribution",
				"layer", "application",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"subscription_id", sub.ID,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()

	start := time.Now()
	err = sub.Handler(ctx, event)
	if err != nil {
		b.stats.handlerErrors.Add(1)
		return err
	}
	b.stats.handled.Add(1)
	b.logger.Debug("handler completed",
		"event", "event_handler_completed",
		"module", "platform-operations/event-distribution",
		"layer", "application",
		"event_id", event.EventID(),
		"event_type", event.EventType(),
		"subscription_id", sub.ID,
		"elapsed", time.Since(start).String(),
	)
	return nil
}
