package application

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/entities"
	domainerrors "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/errors"
)

// workItem pairs one envelope with one matched subscription for asynchronous
// execution. Ephemeral: never persisted, discarded after processing.
type workItem struct {
	event entities.Event
	sub   Subscription
}

// WorkerPool bounds the number of concurrently executing handlers. A fixed
// set of long-lived workers pulls items from a shared bounded queue; Submit
// never blocks the caller.
type WorkerPool struct {
	timeout time.Duration
	queue   chan workItem
	wg      sync.WaitGroup
	stats   *busStats
	logger  *slog.Logger
}

func newWorkerPool(cfg BusConfig, stats *busStats, logger *slog.Logger) *WorkerPool {
	return &WorkerPool{
		timeout: cfg.ProcessTimeout,
		queue:   make(chan workItem, cfg.WorkerPoolSize*poolQueueFactor),
		stats:   stats,
		logger:  ResolveLogger(logger),
	}
}

func (p *WorkerPool) start(workers int) {
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Submit offers one item to the queue. A full queue sheds the item: the drop
// is logged and counted, never surfaced to the producer.
func (p *WorkerPool) Submit(item workItem) bool {
	select {
	case p.queue <- item:
		return true
	default:
		p.stats.dropped.Add(1)
		p.logger.Warn("worker queue full, dropping dispatch",
			"event", "event_dispatch_dropped",
			"module", "platform-operations/event-distribution",
			"layer", "application",
			"event_id", item.event.EventID(),
			"event_type", item.event.EventType(),
			"subscription_id", item.sub.ID,
		)
		return false
	}
}

// Stop signals workers to exit after their current item and waits for them
// up to the context deadline. Exceeding the deadline reports a forced
// shutdown instead of blocking.
func (p *WorkerPool) Stop(ctx context.Context) error {
	close(p.queue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return domainerrors.ErrShutdownTimeout
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for item := range p.queue {
		p.process(item)
	}
}

// process runs one handler under the configured timeout. The handler runs in
// its own goroutine so a handler that ignores cancellation does not wedge the
// worker; its context is marked done and the worker moves on.
func (p *WorkerPool) process(item workItem) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				p.stats.panics.Add(1)
				p.logger.Error("handler panic recovered",
					"event", "event_handler_panic",
					"module", "platform-operations/event-distribution",
					"layer", "application",
					"event_id", item.event.EventID(),
					"event_type", item.event.EventType(),
					"subscription_id", item.sub.ID,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)
				done <- fmt.Errorf("handler panic: %v", rec)
			}
		}()
		done <- item.sub.Handler(ctx, item.event)
	}()

	select {
	case err := <-done:
		elapsed := time.Since(start)
		if err != nil {
			p.stats.handlerErrors.Add(1)
			p.logger.Error("handler failed",
				"event", "event_handler_failed",
				"module", "platform-operations/event-distribution",
				"layer", "application",
				"event_id", item.event.EventID(),
				"event_type", item.event.EventType(),
				"subscription_id", item.sub.ID,
				"elapsed", elapsed.String(),
				"error", err.Error(),
			)
			return
		}
		p.stats.handled.Add(1)
		p.logger.Debug("handler completed",
			"event", "event_handler_completed",
			"module", "platform-operations/event-distribution",
			"layer", "application",
			"event_id", item.event.EventID(),
			"event_type", item.event.EventType(),
			"subscription_id", item.sub.ID,
			"elapsed", elapsed.String(),
		)
	case <-ctx.Done():
		p.stats.timeouts.Add(1)
		p.logger.Warn("handler timed out",
			"event", "event_handler_timeout",
			"module", "platform-operations/event-distribution",
			"layer", "application",
			"event_id", item.event.EventID(),
			"event_type", item.event.EventType(),
			"subscription_id", item.sub.ID,
			"timeout", p.timeout.String(),
		)
	}
}
