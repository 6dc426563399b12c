package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuthService coordinates login, public registration and its review.
type AuthService struct {
	users         repository.UserRepository
	roles         repository.RoleRepository
	departments   repository.DepartmentRepository
	registrations repository.RegistrationRepository
	tokenMgr      *auth.TokenManager
	bcryptCost    int
	logger        *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, repos *repository.Repositories, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:         repos.Users,
		roles:         repos.Roles,
		departments:   repos.Departments,
		registrations: repos.Registrations,
		tokenMgr:      tokens,
		bcryptCost:    cfg.BcryptCost,
		logger:        logger,
	}
}

// Session is the result of a successful login.
type Session struct {
	User        *domain.User
	AccessToken string
	ExpiresAt   time.Time
}

// Login authenticates with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.NewUnauthenticated("invalid credentials")
		}
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	if user.PasswordHash == "" || auth.ComparePassword(user.PasswordHash, password) != nil {
		return nil, apperrors.NewUnauthenticated("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperrors.NewForbidden("account is inactive")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, AccessToken: token, ExpiresAt: exp}, nil
}

// RegistrationInput is the public sign-up payload.
type RegistrationInput struct {
	Name          string
	Email         string
	Password      string
	DepartmentID  int64
	RequestedRole domain.RoleName
}

// Register files a pending registration request. Only the password hash is
// kept.
func (s *AuthService) Register(ctx context.Context, in RegistrationInput) (*domain.RegistrationRequest, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.RequestedRole == "" {
		in.RequestedRole = domain.RoleRequester
	}
	if !in.RequestedRole.Valid() || in.RequestedRole == domain.RoleAdmin {
		return nil, apperrors.NewValidationError("requested role is not allowed", map[string]any{"requestedRole": in.RequestedRole})
	}
	if err := s.checkDepartment(ctx, in.DepartmentID); err != nil {
		return nil, err
	}

	availability, err := s.Availability(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, apperrors.NewConflict(availability.Reason, map[string]any{"email": in.Email})
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req := &domain.RegistrationRequest{
		Name:          in.Name,
		Email:         in.Email,
		PasswordHash:  hash,
		DepartmentID:  in.DepartmentID,
		RequestedRole: in.RequestedRole,
		Status:        domain.RegistrationPending,
	}
	if err := s.registrations.Create(ctx, req); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindInsertFailed, "registration request", err)
	}
	s.logger.Info("registration requested", zap.String("registration_id", req.ID), zap.String("requested_role", string(req.RequestedRole)))
	return req, nil
}

// EmailAvailability answers whether an email may register.
type EmailAvailability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Availability reports whether email is free for a new registration.
func (s *AuthService) Availability(ctx context.Context, email string) (*EmailAvailability, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return &EmailAvailability{Available: false, Reason: "email already registered"}, nil
	} else if !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	pending, err := s.registrations.HasPending(ctx, email)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "registration request", err)
	}
	if pending {
		return &EmailAvailability{Available: false, Reason: "registration request already pending"}, nil
	}
	return &EmailAvailability{Available: true}, nil
}

// ListRegistrations returns registration requests, optionally by status.
func (s *AuthService) ListRegistrations(ctx context.Context, p *domain.Principal, status *domain.RegistrationStatus, page repository.PageRequest) (*repository.Page[domain.RegistrationRequest], error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, err
	}
	if status != nil && !status.Valid() {
		return nil, apperrors.NewValidationError("invalid registration status", map[string]any{"status": *status})
	}
	result, err := s.registrations.List(ctx, status, page)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "registration request", err)
	}
	return result, nil
}

// ApproveRegistration creates the account and marks the request approved in
// one transaction. role overrides the requested role when non-empty.
func (s *AuthService) ApproveRegistration(ctx context.Context, p *domain.Principal, id string, role domain.RoleName) (*domain.User, error) {
	if err := auth.EnsureAdmin(p); err != nil {
		return nil, err
	}
	req, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "registration request", err)
	}
	if req.Status != domain.RegistrationPending {
		return nil, apperrors.NewConflict("registration request already reviewed", map[string]any{"status": req.Status})
	}
	if role == "" {
		role = req.RequestedRole
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	roleRow, err := s.roles.GetByName(ctx, role)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "role", err)
	}

	deptID := req.DepartmentID
	user := &domain.User{
		Email:        req.Email,
		FullName:     req.Name,
		PasswordHash: req.PasswordHash,
		DepartmentID: &deptID,
		RoleID:       roleRow.ID,
		RoleName:     roleRow.Name,
		IsActive:     true,
	}
	if err := s.registrations.Approve(ctx, id, p.ID, user); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindUpdateFailed, "registration request", err)
	}
	s.logger.Info("registration approved", zap.String("registration_id", id), zap.String("user_id", user.ID), zap.String("reviewer_id", p.ID))
	return user, nil
}

// RejectRegistration marks a pending request rejected.
func (s *AuthService) RejectRegistration(ctx context.Context, p *domain.Principal, id string) error {
	if err := auth.EnsureAdmin(p); err != nil {
		return err
	}
	if err := s.registrations.Reject(ctx, id, p.ID); err != nil {
		return apperrors.NewStoreError(apperrors.KindUpdateFailed, "registration request", err)
	}
	s.logger.Info("registration rejected", zap.String("registration_id", id), zap.String("reviewer_id", p.ID))
	return nil
}

// EnsureBootstrapAdmin creates an admin account when email is set and no
// user holds it yet.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !apperrors.IsKind(err, apperrors.KindNotFound) {
		return err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	role, err := s.roles.GetByName(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	user := &domain.User{Email: email, FullName: "Administrator", PasswordHash: hash, RoleID: role.ID, IsActive: true}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) checkDepartment(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.NewValidationError("departmentId is required", map[string]any{"field": "departmentId"})
	}
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return apperrors.NewValidationError("department does not exist", map[string]any{"departmentId": id})
		}
		return apperrors.NewStoreError(apperrors.KindQueryFailed, "department", err)
	}
	if !dept.IsActive {
		return apperrors.NewValidationError("department is inactive", map[string]any{"departmentId": id})
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.NewValidationError("email is invalid", map[string]any{"field": "email"})
	}
	return nil
}
