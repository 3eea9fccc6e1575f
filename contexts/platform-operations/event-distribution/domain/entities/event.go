package entities

import (
	"time"

	"github.com/google/uuid"
)

// Event is the common envelope contract every published occurrence satisfies.
// Identity, type, and timestamp are stamped at construction and never change
// after publish; metadata is a string side-channel for tracing/source
// annotations and is only meant to be written before the event is published.
type Event interface {
	EventID() string
	EventType() string
	OccurredAt() time.Time
	EventPayload() any
	EventMetadata() map[string]string
	SetMetadata(key, value string)
}

// BaseEvent carries the shared envelope fields. Concrete event kinds embed it
// and point Payload back at themselves so generic consumers can introspect
// the base fields while typed consumers downcast the payload. Payload is
// excluded from the envelope's own serialization to break that cycle: a
// concrete kind serializes as envelope fields plus its typed fields.
type BaseEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   any               `json:"-"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func newBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]string),
	}
}

func (e *BaseEvent) EventID() string {
	return e.ID
}

func (e *BaseEvent) EventType() string {
	return e.Type
}

func (e *BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e *BaseEvent) EventPayload() any {
	return e.Payload
}

func (e *BaseEvent) EventMetadata() map[string]string {
	return e.Metadata
}

func (e *BaseEvent) SetMetadata(key, value string) {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
}
