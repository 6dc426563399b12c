package domain

import "time"

// RegistrationStatus enumerates the review states of a sign-up request.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// Valid reports whether the status is known.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected:
		return true
	}
	return false
}

// RegistrationRequest is a public sign-up awaiting admin review.
// Only the bcrypt hash of the chosen password is kept.
type RegistrationRequest struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	DepartmentID  int64
	RequestedRole RoleName
	Status        RegistrationStatus
	CreatedAt     time.Time
	ReviewedBy    *string
	ReviewedAt    *time.Time
}
