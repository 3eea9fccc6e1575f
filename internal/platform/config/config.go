package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	PostgresDSN string
	Events      EventsConfig
}

// EventsConfig carries the event bus and retention tunables. Every field has
// a default so an empty environment yields a working bus.
type EventsConfig struct {
	WorkerPoolSize  int
	BufferSize      int
	MaxRetries      int
	RetryDelay      time.Duration
	ProcessTimeout  time.Duration
	EnableMetrics   bool
	EnablePersist   bool
	DeadLetterQueue bool
	RetentionMaxAge time.Duration
	SweepInterval   time.Duration
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "xsha"
	}

	return Config{
		ServiceName: service,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Events: EventsConfig{
			WorkerPoolSize:  envInt("EVENTS_WORKER_POOL_SIZE", 10),
			BufferSize:      envInt("EVENTS_BUFFER_SIZE", 1000),
			MaxRetries:      envInt("EVENTS_MAX_RETRIES", 3),
			RetryDelay:      envDuration("EVENTS_RETRY_DELAY", 5*time.Second),
			ProcessTimeout:  envDuration("EVENTS_PROCESS_TIMEOUT", 5*time.Minute),
			EnableMetrics:   envBool("EVENTS_ENABLE_METRICS", true),
			EnablePersist:   envBool("EVENTS_ENABLE_PERSIST", true),
			DeadLetterQueue: envBool("EVENTS_DEAD_LETTER_QUEUE", true),
			RetentionMaxAge: envDuration("EVENTS_RETENTION_MAX_AGE", 90*24*time.Hour),
			SweepInterval:   envDuration("EVENTS_SWEEP_INTERVAL", time.Hour),
		},
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
