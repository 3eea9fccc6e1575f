package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/adapters/memory"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/entities"
	domainerrors "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func TestRetentionSweepRemovesExpiredEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	now := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)

	_ = store.Save(ctx, &entities.BaseEvent{
		ID:        "evt-old",
		Type:      "task.created",
		Timestamp: now.Add(-31 * 24 * time.Hour),
	})
	_ = store.Save(ctx, &entities.BaseEvent{
		ID:        "evt-recent",
		Type:      "task.created",
		Timestamp: now.Add(-24 * time.Hour),
	})

	sweeper := RetentionSweeper{
		Store:  store,
		Clock:  fixedClock{now: now},
		MaxAge: 30 * 24 * time.Hour,
	}
	if err := sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if _, err := store.GetByID(ctx, "evt-old"); !errors.Is(err, domainerrors.ErrEventNotFound) {
		t.Fatalf("expected expired event removed, got %v", err)
	}
	if _, err := store.GetByID(ctx, "evt-recent"); err != nil {
		t.Fatalf("recent event must survive: %v", err)
	}
}

func TestRetentionSweepDefaultsMaxAge(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	now := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)

	_ = store.Save(ctx, &entities.BaseEvent{
		ID:        "evt-within-default",
		Type:      "task.created",
		Timestamp: now.Add(-60 * 24 * time.Hour),
	})

	sweeper := RetentionSweeper{
		Store: store,
		Clock: fixedClock{now: now},
	}
	if err := sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if _, err := store.GetByID(ctx, "evt-within-default"); err != nil {
		t.Fatalf("event inside the 90 day default window must survive: %v", err)
	}
}
