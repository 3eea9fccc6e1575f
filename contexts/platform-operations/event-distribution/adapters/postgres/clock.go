package postgresadapter

import (
	"time"

	"github.com/google/uuid"
)

// SystemClock implements ports.Clock using wall-clock UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator implements ports.IDGenerator with random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
