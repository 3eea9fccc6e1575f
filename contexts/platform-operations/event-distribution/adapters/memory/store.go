package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/entities"
	domainerrors "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/errors"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/ports"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Store is the in-memory event log used by tests and the developer bootstrap
// path. It mirrors the postgres adapter's behavior, including serializing
// payloads through JSON so typed payloads degrade to untyped maps on read,
// exactly as they do from a real row.
//
// Store also provides Clock and IDGenerator so a module can be wired entirely
// in memory.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]entities.StoredEvent
	order  []string
	logger *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		byID:   make(map[string]entities.StoredEvent),
		logger: logger,
	}
}

func (s *Store) Save(_ context.Context, event entities.Event) error {
	if event == nil {
		return domainerrors.ErrNilEvent
	}

	payloadJSON, err := json.Marshal(event.EventPayload())
	if err != nil {
		return fmt.Errorf("serialize event payload: %w", err)
	}
	metadataJSON, err := json.Marshal(event.EventMetadata())
	if err != nil {
		return fmt.Errorf("serialize event metadata: %w", err)
	}

	var payload any
	_ = json.Unmarshal(payloadJSON, &payload)
	metadata := map[string]string{}
	_ = json.Unmarshal(metadataJSON, &metadata)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[event.EventID()]; exists {
		return nil
	}
	s.byID[event.EventID()] = entities.StoredEvent{
		ID:        event.EventID(),
		Type:      event.EventType(),
		Timestamp: event.OccurredAt().UTC(),
		Payload:   payload,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	s.order = append(s.order, event.EventID())
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (entities.StoredEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.byID[id]
	if !ok {
		return entities.StoredEvent{}, domainerrors.ErrEventNotFound
	}
	return stored, nil
}

func (s *Store) GetByType(_ context.Context, eventType string, limit, offset int) ([]entities.StoredEvent, error) {
	return s.page(func(e entities.StoredEvent) bool {
		return e.Type == eventType
	}, limit, offset), nil
}

func (s *Store) GetByTimeRange(_ context.Context, from, to time.Time, limit, offset int) ([]entities.StoredEvent, error) {
	return s.page(func(e entities.StoredEvent) bool {
		return inRange(e.Timestamp, from, to)
	}, limit, offset), nil
}

func (s *Store) GetByTypeAndTimeRange(_ context.Context, eventType string, from, to time.Time, limit, offset int) ([]entities.StoredEvent, error) {
	return s.page(func(e entities.StoredEvent) bool {
		return e.Type == eventType && inRange(e.Timestamp, from, to)
	}, limit, offset), nil
}

func (s *Store) Replay(ctx context.Context, from time.Time, handler ports.ReplayHandler) error {
	return s.replay(ctx, "", from, handler)
}

func (s *Store) ReplayByType(ctx context.Context, eventType string, from time.Time, handler ports.ReplayHandler) error {
	return s.replay(ctx, eventType, from, handler)
}

func (s *Store) replay(ctx context.Context, eventType string, from time.Time, handler ports.ReplayHandler) error {
	matched := s.collect(func(e entities.StoredEvent) bool {
		if eventType != "" && e.Type != eventType {
			return false
		}
		return !e.Timestamp.Before(from)
	})
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	for _, stored := range matched {
		if err := handler(ctx, stored); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) CleanupOldEvents(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	kept := s.order[:0]
	for _, id := range s.order {
		if s.byID[id].Timestamp.Before(before) {
			delete(s.byID, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed, nil
}

func (s *Store) CountByType(_ context.Context, eventType string) (int64, error) {
	return int64(len(s.collect(func(e entities.StoredEvent) bool {
		return e.Type == eventType
	}))), nil
}

func (s *Store) CountByTimeRange(_ context.Context, from, to time.Time) (int64, error) {
	return int64(len(s.collect(func(e entities.StoredEvent) bool {
		return inRange(e.Timestamp, from, to)
	}))), nil
}

// Now implements ports.Clock.
func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

// NewID implements ports.IDGenerator.
func (s *Store) NewID() string {
	return uuid.NewString()
}

func (s *Store) collect(match func(entities.StoredEvent) bool) []entities.StoredEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.StoredEvent, 0, len(s.order))
	for _, id := range s.order {
		if stored := s.byID[id]; match(stored) {
			items = append(items, stored)
		}
	}
	return items
}

func (s *Store) page(match func(entities.StoredEvent) bool, limit, offset int) []entities.StoredEvent {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	matched := s.collect(match)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if offset >= len(matched) {
		return []entities.StoredEvent{}
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end]
}

func inRange(ts, from, to time.Time) bool {
	return !ts.Before(from) && !ts.After(to)
}
