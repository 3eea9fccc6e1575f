package unit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	eventdistribution "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/application"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/application/consumers"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/entities"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTaskLifecycleDispatchScenario(t *testing.T) {
	module := eventdistribution.NewInMemoryModule(application.DefaultBusConfig(), quietLogger())
	ctx := context.Background()
	if err := module.Bus.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_ = module.Bus.Stop(stopCtx)
	}()

	var createdOrder []string
	if _, err := module.Bus.Subscribe(entities.EventTypeTaskCreated, func(context.Context, entities.Event) error {
		createdOrder = append(createdOrder, "audit")
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if _, err := module.Bus.Subscribe(entities.EventTypeTaskCreated, func(context.Context, entities.Event) error {
		createdOrder = append(createdOrder, "workspace")
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	var statusChanges []string
	if _, err := module.Bus.Subscribe(entities.EventTypeTaskStatusChanged, func(_ context.Context, event entities.Event) error {
		payload, ok := event.EventPayload().(*entities.TaskStatusChangedEvent)
		if !ok {
			return nil
		}
		statusChanges = append(statusChanges, payload.FromStatus+"->"+payload.ToStatus)
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	created := entities.NewTaskCreatedEvent(1, 1, "prepare workspace", "alice")
	if err := module.Bus.Publish(ctx, created); err != nil {
		t.Fatalf("publish task.created failed: %v", err)
	}
	if len(createdOrder) != 2 || createdOrder[0] != "audit" || createdOrder[1] != "workspace" {
		t.Fatalf("expected both task.created subscribers once in order, got %v", createdOrder)
	}
	if len(statusChanges) != 0 {
		t.Fatalf("status subscriber must not fire for task.created, got %v", statusChanges)
	}

	changed := entities.NewTaskStatusChangedEvent(1, 1, "todo", "in_progress", "alice")
	if err := module.Bus.Publish(ctx, changed); err != nil {
		t.Fatalf("publish task.status.changed failed: %v", err)
	}
	if len(statusChanges) != 1 || statusChanges[0] != "todo->in_progress" {
		t.Fatalf("expected one status change dispatch, got %v", statusChanges)
	}
	if len(createdOrder) != 2 {
		t.Fatalf("task.created subscribers must not fire again, got %v", createdOrder)
	}
}

func TestPublishedEventsAreReplayableFromTheStore(t *testing.T) {
	module := eventdistribution.NewInMemoryModule(application.DefaultBusConfig(), quietLogger())
	ctx := context.Background()
	if err := module.Bus.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_ = module.Bus.Stop(stopCtx)
	}()

	first := entities.NewAdminCreatedEvent(1, "root", "super", "system")
	second := entities.NewAdminCredentialRevokedEvent(10, 1, "deploy-key", "root")
	if err := module.Bus.Publish(ctx, first); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := module.Bus.Publish(ctx, second); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	stored, err := module.Store.GetByID(ctx, second.EventID())
	if err != nil {
		t.Fatalf("stored event lookup failed: %v", err)
	}
	if stored.Type != entities.EventTypeAdminCredentialRevoked {
		t.Fatalf("unexpected stored type %q", stored.Type)
	}

	var replayed []string
	err = module.Store.Replay(ctx, time.Time{}, func(_ context.Context, event entities.StoredEvent) error {
		replayed = append(replayed, event.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(replayed) != 2 || replayed[0] != first.EventID() || replayed[1] != second.EventID() {
		t.Fatalf("expected replay in publish order, got %v", replayed)
	}
}

func TestAuditTrailConsumerObservesPublishedEvents(t *testing.T) {
	module := eventdistribution.NewInMemoryModule(application.DefaultBusConfig(), quietLogger())
	ctx := context.Background()
	if err := module.Bus.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_ = module.Bus.Stop(stopCtx)
	}()

	audit := &consumers.AuditTrail{Logger: quietLogger()}
	if err := audit.Register(module.Bus); err != nil {
		t.Fatalf("audit registration failed: %v", err)
	}

	if err := module.Bus.Publish(ctx, entities.NewResourceAccessGrantedEvent(1, "environment", 4, "write", "root")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if got := module.Bus.Stats().Handled; got != 1 {
		t.Fatalf("expected audit handler to run once, got %d", got)
	}
}
