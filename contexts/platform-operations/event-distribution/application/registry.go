package application

import (
	"strings"
	"sync"

	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/entities"
	domainerrors "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/errors"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/ports"
)

// Priority is an ordering hint among subscriptions for the same event type.
// Higher priorities dispatch first; equal priorities keep registration order.
type Priority int

const (
	PriorityLow    Priority = -1
	PriorityNormal Priority = 0
	PriorityHigh   Priority = 1
)

// Subscription pairs a handler with its exact-match event type, an optional
// filter, and a priority. Owned by the Registry from Subscribe until
// Unsubscribe or bus stop.
type Subscription struct {
	ID        string
	EventType string
	Priority  Priority
	Filter    ports.Filter
	Handler   ports.Handler
}

// Registry is the concurrency-safe table mapping event type to the ordered
// list of subscriptions. Dispatch resolution takes a read lock so concurrent
// publishes do not serialize on each other; subscribe/unsubscribe take the
// write lock.
type Registry struct {
	mu     sync.RWMutex
	byType map[string][]Subscription
	byID   map[string]string
	ids    ports.IDGenerator
}

func NewRegistry(ids ports.IDGenerator) *Registry {
	return &Registry{
		byType: make(map[string][]Subscription),
		byID:   make(map[string]string),
		ids:    ids,
	}
}

func (r *Registry) Subscribe(eventType string, priority Priority, filter ports.Filter, handler ports.Handler) (string, error) {
	if strings.TrimSpace(eventType) == "" {
		return "", domainerrors.ErrEmptyEventType
	}
	if handler == nil {
		return "", domainerrors.ErrNilHandler
	}

	sub := Subscription{
		ID:        r.ids.NewID(),
		EventType: eventType,
		Priority:  priority,
		Filter:    filter,
		Handler:   handler,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.byType[eventType]
	insertAt := len(list)
	for i := range list {
		if list[i].Priority < sub.Priority {
			insertAt = i
			break
		}
	}
	list = append(list, Subscription{})
	copy(list[insertAt+1:], list[insertAt:])
	list[insertAt] = sub
	r.byType[eventType] = list
	r.byID[sub.ID] = eventType
	return sub.ID, nil
}

func (r *Registry) Unsubscribe(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	eventType, ok := r.byID[id]
	if !ok {
		return domainerrors.ErrSubscriptionNotFound
	}
	delete(r.byID, id)

	list := r.byType[eventType]
	filtered := list[:0]
	for _, sub := range list {
		if sub.ID != id {
			filtered = append(filtered, sub)
		}
	}
	if len(filtered) == 0 {
		delete(r.byType, eventType)
	} else {
		r.byType[eventType] = filtered
	}
	return nil
}

// Match resolves the subscriptions an event dispatches to, in priority then
// registration order. Filtered-out subscriptions are skipped silently.
func (r *Registry) Match(event entities.Event) []Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byType[event.EventType()]
	if len(list) == 0 {
		return nil
	}
	matched := make([]Subscription, 0, len(list))
	for _, sub := range list {
		if sub.Filter != nil && !sub.Filter(event) {
			continue
		}
		matched = append(matched, sub)
	}
	return matched
}

// Count reports the number of live subscriptions across all event types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Clear drops every subscription. Used when the bus stops.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType = make(map[string][]Subscription)
	r.byID = make(map[string]string)
}
