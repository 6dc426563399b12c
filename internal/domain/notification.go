package domain

import "time"

// NotificationType differentiates inbox entries.
type NotificationType string

const (
	NotificationAssignment NotificationType = "assignment"
)

// Notification is an inbox entry addressed to a single user.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      NotificationType
	ItemID    *string
	ItemType  *ItemKind
	IsRead    bool
	CreatedAt time.Time
}
