package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// CreateItemRequest is the body of POST /incidents and POST /requirements.
type CreateItemRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	DepartmentID int64   `json:"departmentId"`
	Type         string  `json:"type"`
	Priority     string  `json:"priority"`
	AssignedTo   *string `json:"assignedTo"`
}

// Input converts the request for the lifecycle service.
func (r CreateItemRequest) Input() service.ItemInput {
	return service.ItemInput{
		Title:        r.Title,
		Description:  r.Description,
		Type:         r.Type,
		Priority:     r.Priority,
		DepartmentID: r.DepartmentID,
		AssignedTo:   r.AssignedTo,
	}
}

// CreatedResponse acknowledges a create.
type CreatedResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// UpdateItemRequest is a partial update. affectedAreaId is accepted as an
// alias of departmentId for incidents.
type UpdateItemRequest struct {
	Title                  *string          `json:"title"`
	Description            *string          `json:"description"`
	Type                   *string          `json:"type"`
	Priority               *string          `json:"priority"`
	AssignedTo             Nullable[string] `json:"assignedTo"`
	DepartmentID           *int64           `json:"departmentId"`
	AffectedAreaID         *int64           `json:"affectedAreaId"`
	Status                 *string          `json:"status"`
	ResolvedAt             *time.Time       `json:"resolvedAt"`
	DeliveredAt            *time.Time       `json:"deliveredAt"`
	ExpectedLastModifiedAt *time.Time       `json:"expectedLastModifiedAt"`
}

// Update converts the request for the lifecycle service.
func (r UpdateItemRequest) Update() service.ItemUpdate {
	dept := r.DepartmentID
	if dept == nil {
		dept = r.AffectedAreaID
	}
	completed := r.ResolvedAt
	if completed == nil {
		completed = r.DeliveredAt
	}
	return service.ItemUpdate{
		Title:                  r.Title,
		Description:            r.Description,
		Type:                   r.Type,
		Priority:               r.Priority,
		AssignedTo:             r.AssignedTo.Optional(),
		DepartmentID:           dept,
		Status:                 r.Status,
		CompletedAt:            completed,
		ExpectedLastModifiedAt: r.ExpectedLastModifiedAt,
	}
}

// StatusRequest is the body of POST /{kind}/:id/status.
type StatusRequest struct {
	Status                 string     `json:"status"`
	ResolvedAt             *time.Time `json:"resolvedAt"`
	DeliveredAt            *time.Time `json:"deliveredAt"`
	ExpectedLastModifiedAt *time.Time `json:"expectedLastModifiedAt"`
}

// Change converts the request for the lifecycle service.
func (r StatusRequest) Change() service.StatusChange {
	completed := r.ResolvedAt
	if completed == nil {
		completed = r.DeliveredAt
	}
	return service.StatusChange{Status: r.Status, CompletedAt: completed, ExpectedLastModifiedAt: r.ExpectedLastModifiedAt}
}

// IncidentResponse is the enriched incident read model.
type IncidentResponse struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Type             string     `json:"type"`
	Priority         string     `json:"priority"`
	Status           string     `json:"status"`
	AffectedAreaID   int64      `json:"affectedAreaId"`
	AffectedAreaName *string    `json:"affectedAreaName"`
	AssignedTo       *string    `json:"assignedTo"`
	AssigneeName     *string    `json:"assigneeName"`
	CreatedBy        string     `json:"createdBy"`
	CreatorName      *string    `json:"creatorName"`
	CreatedAt        time.Time  `json:"createdAt"`
	LastModifiedAt   time.Time  `json:"lastModifiedAt"`
	LastModifiedBy   *string    `json:"lastModifiedBy"`
	ResolvedAt       *time.Time `json:"resolvedAt"`
}

// NewIncidentResponse maps a domain incident.
func NewIncidentResponse(i *domain.Incident) IncidentResponse {
	return IncidentResponse{
		ID:               i.ID,
		Title:            i.Title,
		Description:      i.Description,
		Type:             string(i.Type),
		Priority:         string(i.Priority),
		Status:           string(i.Status),
		AffectedAreaID:   i.AffectedAreaID,
		AffectedAreaName: i.AffectedAreaName,
		AssignedTo:       i.AssignedTo,
		AssigneeName:     i.AssigneeName,
		CreatedBy:        i.CreatedBy,
		CreatorName:      i.CreatorName,
		CreatedAt:        i.CreatedAt,
		LastModifiedAt:   i.LastModifiedAt,
		LastModifiedBy:   i.LastModifiedBy,
		ResolvedAt:       i.ResolvedAt,
	}
}

// RequirementResponse is the enriched requirement read model.
type RequirementResponse struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Type           string     `json:"type"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	DepartmentID   int64      `json:"departmentId"`
	DepartmentName *string    `json:"departmentName"`
	AssignedTo     *string    `json:"assignedTo"`
	AssigneeName   *string    `json:"assigneeName"`
	CreatedBy      string     `json:"createdBy"`
	CreatorName    *string    `json:"creatorName"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastModifiedAt time.Time  `json:"lastModifiedAt"`
	LastModifiedBy *string    `json:"lastModifiedBy"`
	DeliveredAt    *time.Time `json:"deliveredAt"`
}

// NewRequirementResponse maps a domain requirement.
func NewRequirementResponse(r *domain.Requirement) RequirementResponse {
	return RequirementResponse{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Type:           string(r.Type),
		Priority:       string(r.Priority),
		Status:         string(r.Status),
		DepartmentID:   r.DepartmentID,
		DepartmentName: r.DepartmentName,
		AssignedTo:     r.AssignedTo,
		AssigneeName:   r.AssigneeName,
		CreatedBy:      r.CreatedBy,
		CreatorName:    r.CreatorName,
		CreatedAt:      r.CreatedAt,
		LastModifiedAt: r.LastModifiedAt,
		LastModifiedBy: r.LastModifiedBy,
		DeliveredAt:    r.DeliveredAt,
	}
}

// AttachmentResponse is attachment metadata; the bytes are served by
// GET /attachments/:id.
type AttachmentResponse struct {
	ID            string    `json:"id"`
	IncidentID    *string   `json:"incidentId,omitempty"`
	RequirementID *string   `json:"requirementId,omitempty"`
	FileName      string    `json:"fileName"`
	MimeType      string    `json:"mimeType"`
	SizeBytes     int64     `json:"sizeBytes"`
	UploadedBy    string    `json:"uploadedBy"`
	CreatedAt     time.Time `json:"createdAt"`
	URL           string    `json:"url"`
}

// NewAttachmentResponse maps attachment metadata.
func NewAttachmentResponse(a *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:            a.ID,
		IncidentID:    a.IncidentID,
		RequirementID: a.RequirementID,
		FileName:      a.FileName,
		MimeType:      a.MimeType,
		SizeBytes:     a.SizeBytes,
		UploadedBy:    a.UploadedBy,
		CreatedAt:     a.CreatedAt,
		URL:           "/attachments/" + a.ID,
	}
}

// ActivityResponse is one activity log row.
type ActivityResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Action      string    `json:"action"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserID      string    `json:"userId"`
	ItemID      string    `json:"itemId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewActivityResponse maps an activity entry.
func NewActivityResponse(e *domain.ActivityLogEntry) ActivityResponse {
	return ActivityResponse{
		ID:          e.ID,
		Type:        string(e.Type),
		Action:      string(e.Action),
		Title:       e.Title,
		Description: e.Description,
		UserID:      e.UserID,
		ItemID:      e.ItemID,
		CreatedAt:   e.CreatedAt,
	}
}
