package eventdistribution

import (
	"log/slog"

	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/adapters/memory"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/application"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/ports"
)

// Module is the composition surface for the event distribution subsystem.
// Runtime wiring should consume Bus; Store is exposed for replay/audit
// tooling and tests.
type Module struct {
	Bus   *application.EventBus
	Store ports.EventStore

	// Memory is set only on the in-memory bootstrap path.
	Memory *memory.Store
}

type Dependencies struct {
	Store       ports.EventStore
	IDGenerator ports.IDGenerator
	Config      application.BusConfig
	Logger      *slog.Logger
}

// NewModule wires one bus instance against explicit ports. Producers and
// consumers receive the bus by injection; tests construct isolated instances.
func NewModule(deps Dependencies) Module {
	bus := application.NewEventBus(deps.Config, deps.Store, deps.IDGenerator, deps.Logger)
	return Module{
		Bus:   bus,
		Store: deps.Store,
	}
}

// NewInMemoryModule wires the bus against the in-memory event store. This is
// the developer/test bootstrap path; production wiring uses the postgres
// adapter.
func NewInMemoryModule(cfg application.BusConfig, logger *slog.Logger) Module {
	store := memory.NewStore(logger)
	module := NewModule(Dependencies{
		Store:       store,
		IDGenerator: store,
		Config:      cfg,
		Logger:      logger,
	})
	module.Memory = store
	return module
}
