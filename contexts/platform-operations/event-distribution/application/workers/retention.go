package workers

import (
	"context"
	"log/slog"
	"time"

	application "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/application"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/ports"
)

// RetentionSweeper deletes stored events older than the retention window.
type RetentionSweeper struct {
	Store  ports.EventStore
	Clock  ports.Clock
	MaxAge time.Duration
	Logger *slog.Logger
}

func (s RetentionSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}
	cutoff := now.Add(-s.maxAge())

	removed, err := s.Store.CleanupOldEvents(ctx, cutoff)
	if err != nil {
		logger.Error("event retention sweep failed",
			"event", "event_retention_sweep_failed",
			"module", "platform-operations/event-distribution",
			"layer", "worker",
			"cutoff", cutoff.Format(time.RFC3339),
			"error", err.Error(),
		)
		return err
	}
	if removed > 0 {
		logger.Info("event retention sweep completed",
			"event", "event_retention_sweep_completed",
			"module", "platform-operations/event-distribution",
			"layer", "worker",
			"cutoff", cutoff.Format(time.RFC3339),
			"removed_count", removed,
		)
	}
	return nil
}

func (s RetentionSweeper) maxAge() time.Duration {
	if s.MaxAge <= 0 {
		return 90 * 24 * time.Hour
	}
	return s.MaxAge
}
