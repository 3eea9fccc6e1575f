package entities

// Catalog of concrete event kinds published by the admin platform: task
// lifecycle, admin account lifecycle, and resource-access lifecycle. Type
// tags are namespaced strings so subscriptions key on exact matches.
const (
	EventTypeTaskCreated       = "task.created"
	EventTypeTaskStatusChanged = "task.status.changed"
	EventTypeTaskDeleted       = "task.deleted"

	EventTypeAdminCreated           = "admin.created"
	EventTypeAdminDeleted           = "admin.deleted"
	EventTypeAdminCredentialRevoked = "admin.credential.revoked"

	EventTypeResourceAccessGranted = "resource.access.granted"
	EventTypeResourceAccessRevoked = "resource.access.revoked"
)

// CatalogTypes lists every known event type tag, in a stable order.
// Consumers that audit the whole stream subscribe to each entry.
func CatalogTypes() []string {
	return []string{
		EventTypeTaskCreated,
		EventTypeTaskStatusChanged,
		EventTypeTaskDeleted,
		EventTypeAdminCreated,
		EventTypeAdminDeleted,
		EventTypeAdminCredentialRevoked,
		EventTypeResourceAccessGranted,
		EventTypeResourceAccessRevoked,
	}
}

type TaskCreatedEvent struct {
	BaseEvent
	TaskID    int64  `json:"task_id"`
	ProjectID int64  `json:"project_id"`
	Title     string `json:"title"`
	CreatedBy string `json:"created_by"`
}

func NewTaskCreatedEvent(taskID, projectID int64, title, createdBy string) *TaskCreatedEvent {
	event := &TaskCreatedEvent{
		BaseEvent: newBaseEvent(EventTypeTaskCreated),
		TaskID:    taskID,
		ProjectID: projectID,
		Title:     title,
		CreatedBy: createdBy,
	}
	event.Payload = event
	return event
}

type TaskStatusChangedEvent struct {
	BaseEvent
	TaskID     int64  `json:"task_id"`
	ProjectID  int64  `json:"project_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ChangedBy  string `json:"changed_by"`
}

func NewTaskStatusChangedEvent(taskID, projectID int64, fromStatus, toStatus, changedBy string) *TaskStatusChangedEvent {
	event := &TaskStatusChangedEvent{
		BaseEvent:  newBaseEvent(EventTypeTaskStatusChanged),
		TaskID:     taskID,
		ProjectID:  projectID,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		ChangedBy:  changedBy,
	}
	event.Payload = event
	return event
}

type TaskDeletedEvent struct {
	BaseEvent
	TaskID    int64  `json:"task_id"`
	ProjectID int64  `json:"project_id"`
	DeletedBy string `json:"deleted_by"`
}

func NewTaskDeletedEvent(taskID, projectID int64, deletedBy string) *TaskDeletedEvent {
	event := &TaskDeletedEvent{
		BaseEvent: newBaseEvent(EventTypeTaskDeleted),
		TaskID:    taskID,
		ProjectID: projectID,
		DeletedBy: deletedBy,
	}
	event.Payload = event
	return event
}

type AdminCreatedEvent struct {
	BaseEvent
	AdminID   int64  `json:"admin_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedBy string `json:"created_by"`
}

func NewAdminCreatedEvent(adminID int64, username, role, createdBy string) *AdminCreatedEvent {
	event := &AdminCreatedEvent{
		BaseEvent: newBaseEvent(EventTypeAdminCreated),
		AdminID:   adminID,
		Username:  username,
		Role:      role,
		CreatedBy: createdBy,
	}
	event.Payload = event
	return event
}

type AdminDeletedEvent struct {
	BaseEvent
	AdminID   int64  `json:"admin_id"`
	Username  string `json:"username"`
	DeletedBy string `json:"deleted_by"`
}

func NewAdminDeletedEvent(adminID int64, username, deletedBy string) *AdminDeletedEvent {
	event := &AdminDeletedEvent{
		BaseEvent: newBaseEvent(EventTypeAdminDeleted),
		AdminID:   adminID,
		Username:  username,
		DeletedBy: deletedBy,
	}
	event.Payload = event
	return event
}

type AdminCredentialRevokedEvent struct {
	BaseEvent
	CredentialID   int64  `json:"credential_id"`
	AdminID        int64  `json:"admin_id"`
	CredentialName string `json:"credential_name"`
	RevokedBy      string `json:"revoked_by"`
}

func NewAdminCredentialRevokedEvent(credentialID, adminID int64, credentialName, revokedBy string) *AdminCredentialRevokedEvent {
	event := &AdminCredentialRevokedEvent{
		BaseEvent:      newBaseEvent(EventTypeAdminCredentialRevoked),
		CredentialID:   credentialID,
		AdminID:        adminID,
		CredentialName: credentialName,
		RevokedBy:      revokedBy,
	}
	event.Payload = event
	return event
}

type ResourceAccessGrantedEvent struct {
	BaseEvent
	AdminID      int64  `json:"admin_id"`
	ResourceType string `json:"resource_type"`
	ResourceID   int64  `json:"resource_id"`
	Permission   string `json:"permission"`
	GrantedBy    string `json:"granted_by"`
}

func NewResourceAccessGrantedEvent(adminID int64, resourceType string, resourceID int64, permission, grantedBy string) *ResourceAccessGrantedEvent {
	event := &ResourceAccessGrantedEvent{
		BaseEvent:    newBaseEvent(EventTypeResourceAccessGranted),
		AdminID:      adminID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Permission:   permission,
		GrantedBy:    grantedBy,
	}
	event.Payload = event
	return event
}

type ResourceAccessRevokedEvent struct {
	BaseEvent
	AdminID      int64  `json:"admin_id"`
	ResourceType string `json:"resource_type"`
	ResourceID   int64  `json:"resource_id"`
	Permission   string `json:"permission"`
	RevokedBy    string `json:"revoked_by"`
}

func NewResourceAccessRevokedEvent(adminID int64, resourceType string, resourceID int64, permission, revokedBy string) *ResourceAccessRevokedEvent {
	event := &ResourceAccessRevokedEvent{
		BaseEvent:    newBaseEvent(EventTypeResourceAccessRevoked),
		AdminID:      adminID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Permission:   permission,
		RevokedBy:    revokedBy,
	}
	event.Payload = event
	return event
}
