package errors

import "errors"

var (
	ErrBusStopped           = errors.New("event bus is not running")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrNilEvent             = errors.New("event is required")
	ErrNilHandler           = errors.New("handler is required")
	ErrEmptyEventType       = errors.New("event type is required")
	ErrShutdownTimeout      = errors.New("shutdown deadline exceeded")
)
