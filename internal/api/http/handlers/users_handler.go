package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Me GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.users.Me(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(dto.NewUserResponse(user)))
}

// List GET /users?role=&department=&isActive=&search=&page=&limit=.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter := repository.UserFilter{
		IsActive:    parseBool(c.Query("isActive")),
		Search:      c.Query("search"),
		PageRequest: pageRequest(c),
	}
	if role := c.Query("role"); role != "" {
		r := domain.RoleName(role)
		filter.Role = &r
	}
	if dept := c.Query("department"); dept != "" {
		id := int64(parseInt(dept, 0))
		if id <= 0 {
			return apperrors.NewValidationError("invalid department", map[string]any{"department": dept})
		}
		filter.DepartmentID = &id
	}
	page, err := h.users.List(c.UserContext(), p, filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPageResponse(page, dto.NewUserResponse))
}

// Get GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(dto.NewUserResponse(user)))
}

// Update PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.Update(c.UserContext(), p, id, req.Update())
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(dto.NewUserResponse(user)))
}

// Delete DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return c.JSON(dto.OKResponse{OK: true})
}
