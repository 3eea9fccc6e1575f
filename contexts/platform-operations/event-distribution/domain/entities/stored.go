package entities

import "time"

// StoredEvent is the durable form of a published envelope as read back from
// the event log. Payload comes back as whatever the serialized form decodes
// to; when the concrete event kind is unknown at read time that is an untyped
// map, never an error.
type StoredEvent struct {
	ID        string
	Type      string
	Timestamp time.Time
	Payload   any
	Metadata  map[string]string
	CreatedAt time.Time
}

// EventID lets a stored event satisfy generic consumers that only need the
// envelope identity fields.
func (e StoredEvent) EventID() string {
	return e.ID
}

func (e StoredEvent) EventType() string {
	return e.Type
}

func (e StoredEvent) OccurredAt() time.Time {
	return e.Timestamp
}
