package domain

import "time"

// User is an account known to the dashboard, joined with its role.
type User struct {
	ID             string
	Email          string
	FullName       string
	PasswordHash   string
	DepartmentID   *int64
	DepartmentName *string
	RoleID         int64
	RoleName       RoleName
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID           string
	Email        string
	FullName     string
	RoleName     RoleName
	IsActive     bool
	DepartmentID *int64
}

// PrincipalFromUser projects a user row onto the request principal.
func PrincipalFromUser(u *User) *Principal {
	return &Principal{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		RoleName:     u.RoleName,
		IsActive:     u.IsActive,
		DepartmentID: u.DepartmentID,
	}
}

// DisplayName prefers the full name and falls back to the email.
func (p *Principal) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}
