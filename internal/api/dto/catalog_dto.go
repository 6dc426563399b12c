package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// DepartmentRequest creates or edits a department.
type DepartmentRequest struct {
	Name        *string `json:"name"`
	ShortName   *string `json:"shortName"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// Input converts the request for the catalog service.
func (r DepartmentRequest) Input() service.DepartmentInput {
	return service.DepartmentInput{Name: r.Name, ShortName: r.ShortName, Description: r.Description, IsActive: r.IsActive}
}

// DepartmentResponse is a department catalog entry.
type DepartmentResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ShortName   string `json:"shortName"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// NewDepartmentResponse maps a department.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Name: d.Name, ShortName: d.ShortName, Description: d.Description, IsActive: d.IsActive}
}

// RoleResponse is a role catalog entry.
type RoleResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// NewRoleResponse maps a role.
func NewRoleResponse(r *domain.Role) RoleResponse {
	return RoleResponse{ID: r.ID, Name: string(r.Name), Description: r.Description, IsActive: r.IsActive}
}

// NotificationResponse is one inbox row.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	ItemID    *string   `json:"itemId"`
	ItemType  *string   `json:"itemType"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewNotificationResponse maps a notification.
func NewNotificationResponse(n *domain.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		ItemID:    n.ItemID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.ItemType != nil {
		kind := string(*n.ItemType)
		resp.ItemType = &kind
	}
	return resp
}

// InboxResponse is a notifications page plus the unread badge count.
type InboxResponse struct {
	PageResponse[NotificationResponse]
	Unread int `json:"unread"`
}
