package domain

// ItemKind distinguishes the two lifecycle-managed entities.
type ItemKind string

const (
	KindIncident    ItemKind = "incident"
	KindRequirement ItemKind = "requirement"
)

// Priority enumerates urgency levels shared by incidents and requirements.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether the priority is known.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
