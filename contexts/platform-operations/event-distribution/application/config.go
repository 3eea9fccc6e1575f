package application

import "time"

// BusConfig is immutable for the life of one bus instance. Zero values are
// replaced with defaults at construction so callers can set only what they
// care about.
//
// MaxRetries/RetryDelay and DeadLetterQueue are accepted and carried but no
// retry loop or DLQ enqueue path exists yet: a failed handler invocation is
// terminal for that delivery attempt.
type BusConfig struct {
	WorkerPoolSize  int
	BufferSize      int
	MaxRetries      int
	RetryDelay      time.Duration
	ProcessTimeout  time.Duration
	EnableMetrics   bool
	EnablePersist   bool
	DeadLetterQueue bool
}

const (
	defaultWorkerPoolSize = 10
	defaultBufferSize     = 1000
	defaultMaxRetries     = 3
	defaultRetryDelay     = 5 * time.Second
	defaultProcessTimeout = 5 * time.Minute

	// Pool queue capacity is a multiple of the worker count so a short burst
	// does not immediately shed work.
	poolQueueFactor = 10
)

func DefaultBusConfig() BusConfig {
	return BusConfig{
		WorkerPoolSize:  defaultWorkerPoolSize,
		BufferSize:      defaultBufferSize,
		MaxRetries:      defaultMaxRetries,
		RetryDelay:      defaultRetryDelay,
		ProcessTimeout:  defaultProcessTimeout,
		EnableMetrics:   true,
		EnablePersist:   true,
		DeadLetterQueue: true,
	}
}

func (c BusConfig) withDefaults() BusConfig {
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = defaultWorkerPoolSize
	}
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.ProcessTimeout <= 0 {
		c.ProcessTimeout = defaultProcessTimeout
	}
	return c
}
