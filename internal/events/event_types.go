package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventItemCreated       EventType = "item_created"
	EventItemUpdated       EventType = "item_updated"
	EventItemStatusChanged EventType = "item_status_changed"
	EventItemAssigned      EventType = "item_assigned"
	EventItemDeleted       EventType = "item_deleted"
	EventAttachmentAdded   EventType = "attachment_added"
)

// AllEventTypes lists every event the services emit.
var AllEventTypes = []EventType{
	EventItemCreated,
	EventItemUpdated,
	EventItemStatusChanged,
	EventItemAssigned,
	EventItemDeleted,
	EventAttachmentAdded,
}

// Actor is a snapshot of the principal that caused the event.
type Actor struct {
	ID       string          `json:"id"`
	Email    string          `json:"email"`
	FullName string          `json:"full_name"`
	Role     domain.RoleName `json:"role"`
}

// ActorFromPrincipal snapshots p. Later changes to the user row do not
// affect queued events.
func ActorFromPrincipal(p *domain.Principal) Actor {
	if p == nil {
		return Actor{}
	}
	return Actor{ID: p.ID, Email: p.Email, FullName: p.FullName, Role: p.RoleName}
}

// DisplayName prefers the full name and falls back to the email.
func (a Actor) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Email
}

// Event represents a domain event emitted by services after a durable write.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Kind      domain.ItemKind `json:"kind"`
	ItemID    string          `json:"item_id"`
	ItemTitle string          `json:"item_title"`
	Actor     Actor           `json:"actor"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   any             `json:"payload,omitempty"`
}

// ItemUpdatedPayload lists the fields a PATCH changed.
type ItemUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// ItemStatusChangedPayload payload.
type ItemStatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// ItemAssignedPayload payload. PreviousAssignee is nil on first assignment.
type ItemAssignedPayload struct {
	PreviousAssignee *string `json:"previous_assignee,omitempty"`
	Assignee         string  `json:"assignee"`
}

// AttachmentAddedPayload payload.
type AttachmentAddedPayload struct {
	AttachmentID string `json:"attachment_id"`
	FileName     string `json:"file_name"`
}
