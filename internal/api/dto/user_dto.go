package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by a successful login.
type SessionResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// NewSessionResponse maps a session.
func NewSessionResponse(s *service.Session) SessionResponse {
	return SessionResponse{AccessToken: s.AccessToken, TokenType: "Bearer", ExpiresAt: s.ExpiresAt, User: NewUserResponse(s.User)}
}

// RegisterRequest is the public sign-up payload.
type RegisterRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	DepartmentID  int64  `json:"departmentId"`
	RequestedRole string `json:"requestedRole"`
}

// Input converts the request for the auth service.
func (r RegisterRequest) Input() service.RegistrationInput {
	return service.RegistrationInput{
		Name:          r.Name,
		Email:         r.Email,
		Password:      r.Password,
		DepartmentID:  r.DepartmentID,
		RequestedRole: domain.RoleName(r.RequestedRole),
	}
}

// RegistrationResponse never carries the password hash.
type RegistrationResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	DepartmentID  int64      `json:"departmentId"`
	RequestedRole string     `json:"requestedRole"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	ReviewedBy    *string    `json:"reviewedBy"`
	ReviewedAt    *time.Time `json:"reviewedAt"`
}

// NewRegistrationResponse maps a registration request.
func NewRegistrationResponse(r *domain.RegistrationRequest) RegistrationResponse {
	return RegistrationResponse{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		DepartmentID:  r.DepartmentID,
		RequestedRole: string(r.RequestedRole),
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
		ReviewedBy:    r.ReviewedBy,
		ReviewedAt:    r.ReviewedAt,
	}
}

// ApproveRequest optionally overrides the requested role.
type ApproveRequest struct {
	Role string `json:"role"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	DepartmentID   *int64    `json:"departmentId"`
	DepartmentName *string   `json:"departmentName"`
	Role           string    `json:"roleName"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewUserResponse maps a user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		DepartmentID:   u.DepartmentID,
		DepartmentName: u.DepartmentName,
		Role:           string(u.RoleName),
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// UpdateUserRequest is an admin edit of an account.
type UpdateUserRequest struct {
	FullName     *string         `json:"fullName"`
	Role         *string         `json:"roleName"`
	DepartmentID Nullable[int64] `json:"departmentId"`
	IsActive     *bool           `json:"isActive"`
}

// Update converts the request for the user service.
func (r UpdateUserRequest) Update() service.UserUpdate {
	u := service.UserUpdate{FullName: r.FullName, DepartmentID: r.DepartmentID.Optional(), IsActive: r.IsActive}
	if r.Role != nil {
		role := domain.RoleName(*r.Role)
		u.Role = &role
	}
	return u
}
