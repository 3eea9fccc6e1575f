package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	eventdistribution "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution"
	postgresadapter "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/adapters/postgres"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/application"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/application/consumers"
	workerapp "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/application/workers"
	"github.com/xshalabs/xsha-sub005/internal/platform/config"
	"github.com/xshalabs/xsha-sub005/internal/platform/db"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const stopTimeout = 30 * time.Second

type WorkerApp struct {
	postgres      *db.Postgres
	module        eventdistribution.Module
	audit         *consumers.AuditTrail
	retention     workerapp.RetentionSweeper
	sweepInterval time.Duration
	logger        *slog.Logger
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	store := postgresadapter.NewStore(pg.DB, logger)
	module := eventdistribution.NewModule(eventdistribution.Dependencies{
		Store:       store,
		IDGenerator: postgresadapter.UUIDGenerator{},
		Config: application.BusConfig{
			WorkerPoolSize:  cfg.Events.WorkerPoolSize,
			BufferSize:      cfg.Events.BufferSize,
			MaxRetries:      cfg.Events.MaxRetries,
			RetryDelay:      cfg.Events.RetryDelay,
			ProcessTimeout:  cfg.Events.ProcessTimeout,
			EnableMetrics:   cfg.Events.EnableMetrics,
			EnablePersist:   cfg.Events.EnablePersist,
			DeadLetterQueue: cfg.Events.DeadLetterQueue,
		},
		Logger: logger,
	})

	audit := &consumers.AuditTrail{Logger: logger}
	if err := audit.Register(module.Bus); err != nil {
		_ = pg.Close()
		return nil, err
	}

	return &WorkerApp{
		postgres: pg,
		module:   module,
		audit:    audit,
		retention: workerapp.RetentionSweeper{
			Store:  store,
			Clock:  postgresadapter.SystemClock{},
			MaxAge: cfg.Events.RetentionMaxAge,
			Logger: logger,
		},
		sweepInterval: cfg.Events.SweepInterval,
		logger:        logger,
	}, nil
}

// Bus exposes the process-wide dispatch backbone so producer components can
// receive it by injection.
func (w *WorkerApp) Bus() *application.EventBus {
	return w.module.Bus
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.module.Bus.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep_interval", w.sweepInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			return w.stopBus()
		case <-ticker.C:
			if err := w.retention.RunOnce(ctx); err != nil {
				w.stopOnError()
				return err
			}
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) stopBus() error {
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return w.module.Bus.Stop(stopCtx)
}

func (w *WorkerApp) stopOnError() {
	if err := w.stopBus(); err != nil {
		w.logger.Warn("bus stop after worker error failed",
			"event", "bootstrap_worker_stop_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}
