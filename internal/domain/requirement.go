package domain

import "time"

// RequirementStatus enumerates lifecycle states for requirements.
type RequirementStatus string

const (
	RequirementStatusPending    RequirementStatus = "pending"
	RequirementStatusInProgress RequirementStatus = "in_progress"
	RequirementStatusDelivered  RequirementStatus = "delivered"
	RequirementStatusClosed     RequirementStatus = "closed"
)

// RequirementStatuses lists every requirement status in lifecycle order.
var RequirementStatuses = []RequirementStatus{
	RequirementStatusPending,
	RequirementStatusInProgress,
	RequirementStatusDelivered,
	RequirementStatusClosed,
}

// Valid reports whether the status is known.
func (s RequirementStatus) Valid() bool {
	for _, candidate := range RequirementStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Completed reports whether the status carries a delivery timestamp.
func (s RequirementStatus) Completed() bool {
	return s == RequirementStatusDelivered || s == RequirementStatusClosed
}

// RequirementType classifies what is being asked for.
type RequirementType string

const (
	RequirementTypeSoftware RequirementType = "software"
	RequirementTypeHardware RequirementType = "hardware"
	RequirementTypeAccess   RequirementType = "access"
	RequirementTypeService  RequirementType = "service"
	RequirementTypeOther    RequirementType = "other"
)

// Valid reports whether the type is known.
func (t RequirementType) Valid() bool {
	switch t {
	case RequirementTypeSoftware, RequirementTypeHardware, RequirementTypeAccess, RequirementTypeService, RequirementTypeOther:
		return true
	}
	return false
}

// Requirement is a request for something new, tracked until delivery.
type Requirement struct {
	ID             string
	Title          string
	Description    string
	Type           RequirementType
	Priority       Priority
	Status         RequirementStatus
	DepartmentID   int64
	AssignedTo     *string
	CreatedBy      string
	CreatedAt      time.Time
	LastModifiedAt time.Time
	LastModifiedBy *string
	DeliveredAt    *time.Time

	DepartmentName *string
	AssigneeName   *string
	CreatorName    *string
}

// IsOpen reports whether the requirement is still pending.
func (r *Requirement) IsOpen() bool {
	return r.Status == RequirementStatusPending
}
