package domain

// RoleName enumerates the roles a principal may hold.
type RoleName string

const (
	RoleAdmin      RoleName = "admin"
	RoleTechnician RoleName = "technician"
	RoleRequester  RoleName = "requester"
)

// Valid reports whether the role is one of the known roles.
func (r RoleName) Valid() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleRequester:
		return true
	}
	return false
}

// Privileged reports whether the role may perform mutations.
func (r RoleName) Privileged() bool {
	return r == RoleAdmin || r == RoleTechnician
}

// Role is the catalog row backing a RoleName.
type Role struct {
	ID          int64
	Name        RoleName
	Description string
	IsActive    bool
}
