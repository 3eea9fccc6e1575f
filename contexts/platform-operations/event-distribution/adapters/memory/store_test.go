package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/entities"
	domainerrors "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/errors"
)

func eventAt(id, eventType string, ts time.Time) *entities.BaseEvent {
	return &entities.BaseEvent{
		ID:        id,
		Type:      eventType,
		Timestamp: ts,
		Metadata:  map[string]string{"source": "test"},
	}
}

func TestSaveAndGetByIDRoundTrip(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	event := entities.NewTaskCreatedEvent(1, 2, "build", "alice")
	event.SetMetadata("trace_id", "trace-1")
	if err := store.Save(ctx, event); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	stored, err := store.GetByID(ctx, event.EventID())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ID != event.EventID() || stored.Type != event.EventType() {
		t.Fatalf("identity mismatch: %+v", stored)
	}
	if !stored.Timestamp.Equal(event.OccurredAt()) {
		t.Fatalf("timestamp mismatch: %v vs %v", stored.Timestamp, event.OccurredAt())
	}
	if stored.Metadata["trace_id"] != "trace-1" {
		t.Fatalf("metadata mismatch: %v", stored.Metadata)
	}

	// Payload degrades to an untyped map, as from a durable row.
	payload, ok := stored.Payload.(map[string]any)
	if !ok {
		t.Fatalf("expected map payload, got %T", stored.Payload)
	}
	if payload["task_id"] != float64(1) || payload["title"] != "build" {
		t.Fatalf("payload fields lost: %v", payload)
	}
	if stored.CreatedAt.IsZero() {
		t.Fatal("expected storage-assigned created_at")
	}
}

func TestGetByIDMiss(t *testing.T) {
	store := NewStore(nil)
	if _, err := store.GetByID(context.Background(), "evt-missing"); !errors.Is(err, domainerrors.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestSaveDuplicateIDIsNoOp(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	if err := store.Save(ctx, eventAt("evt-1", "task.created", base)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Save(ctx, eventAt("evt-1", "task.created", base.Add(time.Hour))); err != nil {
		t.Fatalf("duplicate save must not fail: %v", err)
	}

	count, err := store.CountByType(ctx, "task.created")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 stored event, got %d", count)
	}
}

func TestGetByTypeNewestFirstWithPaging(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_ = store.Save(ctx, eventAt(
			"evt-"+string(rune('a'+i)),
			"task.created",
			base.Add(time.Duration(i)*time.Minute),
		))
	}
	_ = store.Save(ctx, eventAt("evt-other", "task.deleted", base))

	page, err := store.GetByType(ctx, "task.created", 2, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 events, got %d", len(page))
	}
	if page[0].ID != "evt-e" || page[1].ID != "evt-d" {
		t.Fatalf("expected newest first, got [%s %s]", page[0].ID, page[1].ID)
	}

	next, err := store.GetByType(ctx, "task.created", 2, 2)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(next) != 2 || next[0].ID != "evt-c" {
		t.Fatalf("unexpected second page: %+v", next)
	}
}

func TestGetByTimeRangeBoundsAreInclusive(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	_ = store.Save(ctx, eventAt("evt-before", "task.created", base.Add(-time.Minute)))
	_ = store.Save(ctx, eventAt("evt-from", "task.created", base))
	_ = store.Save(ctx, eventAt("evt-to", "task.created", base.Add(time.Hour)))
	_ = store.Save(ctx, eventAt("evt-after", "task.created", base.Add(time.Hour+time.Minute)))

	events, err := store.GetByTimeRange(ctx, base, base.Add(time.Hour), 0, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events in range, got %d", len(events))
	}

	count, err := store.CountByTimeRange(ctx, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}

func TestGetByTypeAndTimeRange(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	_ = store.Save(ctx, eventAt("evt-1", "task.created", base))
	_ = store.Save(ctx, eventAt("evt-2", "task.deleted", base))
	_ = store.Save(ctx, eventAt("evt-3", "task.created", base.Add(2*time.Hour)))

	events, err := store.GetByTypeAndTimeRange(ctx, "task.created", base, base.Add(time.Hour), 0, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(events) != 1 || events[0].ID != "evt-1" {
		t.Fatalf("unexpected result: %+v", events)
	}
}

func TestReplayVisitsAscendingFromCutoff(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	// Saved out of publish order on purpose.
	_ = store.Save(ctx, eventAt("evt-3", "task.created", base.Add(3*time.Minute)))
	_ = store.Save(ctx, eventAt("evt-1", "task.created", base.Add(time.Minute)))
	_ = store.Save(ctx, eventAt("evt-0", "task.created", base))
	_ = store.Save(ctx, eventAt("evt-2", "task.created", base.Add(2*time.Minute)))

	var visited []string
	err := store.Replay(ctx, base.Add(time.Minute), func(_ context.Context, event entities.StoredEvent) error {
		visited = append(visited, event.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(visited) != 3 {
		t.Fatalf("expected 3 events at or after cutoff, got %d", len(visited))
	}
	for i, want := range []string{"evt-1", "evt-2", "evt-3"} {
		if visited[i] != want {
			t.Fatalf("expected ascending order [evt-1 evt-2 evt-3], got %v", visited)
		}
	}
}

func TestReplayByTypeFilters(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	_ = store.Save(ctx, eventAt("evt-1", "task.created", base))
	_ = store.Save(ctx, eventAt("evt-2", "admin.created", base.Add(time.Minute)))
	_ = store.Save(ctx, eventAt("evt-3", "task.created", base.Add(2*time.Minute)))

	var visited []string
	err := store.ReplayByType(ctx, "task.created", base, func(_ context.Context, event entities.StoredEvent) error {
		visited = append(visited, event.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(visited) != 2 || visited[0] != "evt-1" || visited[1] != "evt-3" {
		t.Fatalf("unexpected replay set: %v", visited)
	}
}

func TestReplayStopsOnHandlerError(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	_ = store.Save(ctx, eventAt("evt-1", "task.created", base))
	_ = store.Save(ctx, eventAt("evt-2", "task.created", base.Add(time.Minute)))
	_ = store.Save(ctx, eventAt("evt-3", "task.created", base.Add(2*time.Minute)))

	boom := errors.New("projection broken")
	var visited int
	err := store.Replay(ctx, base, func(context.Context, entities.StoredEvent) error {
		visited++
		if visited == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error surfaced, got %v", err)
	}
	if visited != 2 {
		t.Fatalf("replay must stop at the failing event, visited %d", visited)
	}
}

func TestCleanupOldEventsDeletesStrictlyOlder(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	cutoff := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	_ = store.Save(ctx, eventAt("evt-old", "task.created", cutoff.Add(-time.Hour)))
	_ = store.Save(ctx, eventAt("evt-exact", "task.created", cutoff))
	_ = store.Save(ctx, eventAt("evt-new", "task.created", cutoff.Add(time.Hour)))

	removed, err := store.CleanupOldEvents(ctx, cutoff)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := store.GetByID(ctx, "evt-old"); !errors.Is(err, domainerrors.ErrEventNotFound) {
		t.Fatalf("expected old event gone, got %v", err)
	}
	if _, err := store.GetByID(ctx, "evt-exact"); err != nil {
		t.Fatalf("cutoff boundary event must survive: %v", err)
	}
}
