package domain

import "time"

// ActivityAction captures what happened to an item.
type ActivityAction string

const (
	ActionCreated       ActivityAction = "created"
	ActionUpdated       ActivityAction = "updated"
	ActionStatusChanged ActivityAction = "status_changed"
	ActionAssigned      ActivityAction = "assigned"
	ActionDeleted       ActivityAction = "deleted"
	ActionAttachment    ActivityAction = "attachment_added"
)

// ActivityLogEntry is an immutable audit trail row.
type ActivityLogEntry struct {
	ID          string
	Type        ItemKind
	Action      ActivityAction
	Title       string
	Description string
	UserID      string
	ItemID      string
	CreatedAt   time.Time
}
