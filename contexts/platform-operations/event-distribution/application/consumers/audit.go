package consumers

import (
	"context"
	"log/slog"
	"time"

	application "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/application"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/entities"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/ports"
)

// Subscriber is the slice of the bus surface a consumer needs to register.
type Subscriber interface {
	Subscribe(eventType string, handler ports.Handler) (string, error)
}

// AuditTrail records one structured audit entry per published event. It
// subscribes to every catalog type; a payload of an unexpected concrete kind
// is still audited from the envelope fields, never treated as an error.
type AuditTrail struct {
	Logger *slog.Logger

	subscriptionIDs []string
}

// Register subscribes the audit handler to every catalog event type and
// keeps the subscription ids for inspection.
func (a *AuditTrail) Register(bus Subscriber) error {
	for _, eventType := range entities.CatalogTypes() {
		id, err := bus.Subscribe(eventType, a.record)
		if err != nil {
			return err
		}
		a.subscriptionIDs = append(a.subscriptionIDs, id)
	}
	return nil
}

// SubscriptionIDs returns the ids Register created, in catalog order.
func (a *AuditTrail) SubscriptionIDs() []string {
	return append([]string(nil), a.subscriptionIDs...)
}

func (a *AuditTrail) record(_ context.Context, event entities.Event) error {
	logger := application.ResolveLogger(a.Logger)

	attrs := []any{
		"event", "audit_event_recorded",
		"module", "platform-operations/event-distribution",
		"layer", "consumer",
		"event_id", event.EventID(),
		"event_type", event.EventType(),
		"occurred_at", event.OccurredAt().Format(time.RFC3339Nano),
	}

	switch payload := event.EventPayload().(type) {
	case *entities.TaskCreatedEvent:
		attrs = append(attrs, "task_id", payload.TaskID, "project_id", payload.ProjectID, "actor", payload.CreatedBy)
	case *entities.TaskStatusChangedEvent:
		attrs = append(attrs, "task_id", payload.TaskID, "from_status", payload.FromStatus, "to_status", payload.ToStatus, "actor", payload.ChangedBy)
	case *entities.TaskDeletedEvent:
		attrs = append(attrs, "task_id", payload.TaskID, "actor", payload.DeletedBy)
	case *entities.AdminCreatedEvent:
		attrs = append(attrs, "admin_id", payload.AdminID, "username", payload.Username, "actor", payload.CreatedBy)
	case *entities.AdminDeletedEvent:
		attrs = append(attrs, "admin_id", payload.AdminID, "username", payload.Username, "actor", payload.DeletedBy)
	case *entities.AdminCredentialRevokedEvent:
		attrs = append(attrs, "credential_id", payload.CredentialID, "admin_id", payload.AdminID, "actor", payload.RevokedBy)
	case *entities.ResourceAccessGrantedEvent:
		attrs = append(attrs, "admin_id", payload.AdminID, "resource_type", payload.ResourceType, "resource_id", payload.ResourceID, "actor", payload.GrantedBy)
	case *entities.ResourceAccessRevokedEvent:
		attrs = append(attrs, "admin_id", payload.AdminID, "resource_type", payload.ResourceType, "resource_id", payload.ResourceID, "actor", payload.RevokedBy)
	default:
		// Unknown concrete kind: the envelope fields above are enough.
	}

	logger.Info("audit event recorded", attrs...)
	return nil
}
