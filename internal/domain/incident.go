package domain

import "time"

// IncidentStatus enumerates lifecycle states for incidents.
type IncidentStatus string

const (
	IncidentStatusOpen       IncidentStatus = "open"
	IncidentStatusInProgress IncidentStatus = "in_progress"
	IncidentStatusResolved   IncidentStatus = "resolved"
	IncidentStatusClosed     IncidentStatus = "closed"
)

// IncidentStatuses lists every incident status in lifecycle order.
var IncidentStatuses = []IncidentStatus{
	IncidentStatusOpen,
	IncidentStatusInProgress,
	IncidentStatusResolved,
	IncidentStatusClosed,
}

// Valid reports whether the status is known.
func (s IncidentStatus) Valid() bool {
	for _, candidate := range IncidentStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Completed reports whether the status carries a resolution timestamp.
func (s IncidentStatus) Completed() bool {
	return s == IncidentStatusResolved || s == IncidentStatusClosed
}

// IncidentType classifies what broke.
type IncidentType string

const (
	IncidentTypeTechnical IncidentType = "technical"
	IncidentTypeSoftware  IncidentType = "software"
	IncidentTypeHardware  IncidentType = "hardware"
	IncidentTypeNetwork   IncidentType = "network"
	IncidentTypeOther     IncidentType = "other"
)

// Valid reports whether the type is known.
func (t IncidentType) Valid() bool {
	switch t {
	case IncidentTypeTechnical, IncidentTypeSoftware, IncidentTypeHardware, IncidentTypeNetwork, IncidentTypeOther:
		return true
	}
	return false
}

// Incident is a reported disruption tracked until resolution.
type Incident struct {
	ID             string
	Title          string
	Description    string
	Type           IncidentType
	Priority       Priority
	Status         IncidentStatus
	AffectedAreaID int64
	AssignedTo     *string
	CreatedBy      string
	CreatedAt      time.Time
	LastModifiedAt time.Time
	LastModifiedBy *string
	ResolvedAt     *time.Time

	// Read-side enrichment, populated by joins.
	AffectedAreaName *string
	AssigneeName     *string
	CreatorName      *string
}

// IsOpen reports whether content edits are still open to technicians.
func (i *Incident) IsOpen() bool {
	return i.Status == IncidentStatusOpen
}
