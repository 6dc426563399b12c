package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// CatalogHandler serves departments and roles.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Departments GET /departments?active=true. Public, since the registration
// form needs it.
func (h *CatalogHandler) Departments(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)
	depts, err := h.catalog.Departments(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	out := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		out = append(out, dto.NewDepartmentResponse(&depts[i]))
	}
	return c.JSON(dto.OK(out))
}

// CreateDepartment POST /departments.
func (h *CatalogHandler) CreateDepartment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.catalog.CreateDepartment(c.UserContext(), p, req.Input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK(dto.NewDepartmentResponse(dept)))
}

// UpdateDepartment PATCH /departments/:id.
func (h *CatalogHandler) UpdateDepartment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathInt(c, "id")
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.catalog.UpdateDepartment(c.UserContext(), p, id, req.Input())
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(dto.NewDepartmentResponse(dept)))
}

// Roles GET /roles.
func (h *CatalogHandler) Roles(c *fiber.Ctx) error {
	roles, err := h.catalog.Roles(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, dto.NewRoleResponse(&roles[i]))
	}
	return c.JSON(dto.OK(out))
}
