package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuthHandler exposes login, public registration and its admin review.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(dto.NewSessionResponse(session)))
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reg, err := h.auth.Register(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Envelope{
		Success: true,
		Data:    dto.NewRegistrationResponse(reg),
		Message: "registration submitted for review",
	})
}

// Availability GET /auth/register/availability?email=.
func (h *AuthHandler) Availability(c *fiber.Ctx) error {
	result, err := h.auth.Availability(c.UserContext(), c.Query("email"))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(result))
}

// ListRegistrations GET /registration-requests?status=.
func (h *AuthHandler) ListRegistrations(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var status *domain.RegistrationStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := domain.RegistrationStatus(raw)
		status = &s
	}
	page, err := h.auth.ListRegistrations(c.UserContext(), p, status, pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPageResponse(page, dto.NewRegistrationResponse))
}

// Approve POST /registration-requests/:id/approve.
func (h *AuthHandler) Approve(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ApproveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	user, err := h.auth.ApproveRegistration(c.UserContext(), p, id, domain.RoleName(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(dto.NewUserResponse(user)))
}

// Reject POST /registration-requests/:id/reject.
func (h *AuthHandler) Reject(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.auth.RejectRegistration(c.UserContext(), p, id); err != nil {
		return err
	}
	return c.JSON(dto.OKResponse{OK: true, ID: id})
}
