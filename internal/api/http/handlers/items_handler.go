package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// itemService is the lifecycle surface shared by incidents and requirements.
type itemService[T any] interface {
	List(ctx context.Context, p *domain.Principal, filter repository.ItemFilter) (*repository.Page[T], error)
	Get(ctx context.Context, p *domain.Principal, id string) (*T, error)
	Permissions(ctx context.Context, p *domain.Principal, id string) (policy.PermissionView, error)
	Create(ctx context.Context, p *domain.Principal, in service.ItemInput) (*T, error)
	Update(ctx context.Context, p *domain.Principal, id string, in service.ItemUpdate) (*T, error)
	ChangeStatus(ctx context.Context, p *domain.Principal, id string, in service.StatusChange) (*service.StatusResult, error)
	Delete(ctx context.Context, p *domain.Principal, id string) error
}

// ItemsHandler serves /incidents and /requirements.
type ItemsHandler[T, R any] struct {
	kind        domain.ItemKind
	items       itemService[T]
	summary     func(context.Context, *domain.Principal) (any, error)
	view        func(*T) R
	created     func(*T) dto.CreatedResponse
	attachments *service.AttachmentService
	activity    *service.ActivityService
}

// IncidentsHandler serves /incidents.
type IncidentsHandler = ItemsHandler[domain.Incident, dto.IncidentResponse]

// RequirementsHandler serves /requirements.
type RequirementsHandler = ItemsHandler[domain.Requirement, dto.RequirementResponse]

// NewIncidentsHandler constructs handler.
func NewIncidentsHandler(incidents *service.IncidentService, attachments *service.AttachmentService, activity *service.ActivityService) *IncidentsHandler {
	return &IncidentsHandler{
		kind:  domain.KindIncident,
		items: incidents,
		summary: func(ctx context.Context, p *domain.Principal) (any, error) {
			return incidents.Summary(ctx, p)
		},
		view: dto.NewIncidentResponse,
		created: func(i *domain.Incident) dto.CreatedResponse {
			return dto.CreatedResponse{ID: i.ID, Status: string(i.Status), CreatedAt: i.CreatedAt}
		},
		attachments: attachments,
		activity:    activity,
	}
}

// NewRequirementsHandler constructs handler.
func NewRequirementsHandler(requirements *service.RequirementService, attachments *service.AttachmentService, activity *service.ActivityService) *RequirementsHandler {
	return &RequirementsHandler{
		kind:  domain.KindRequirement,
		items: requirements,
		summary: func(ctx context.Context, p *domain.Principal) (any, error) {
			return requirements.Summary(ctx, p)
		},
		view: dto.NewRequirementResponse,
		created: func(r *domain.Requirement) dto.CreatedResponse {
			return dto.CreatedResponse{ID: r.ID, Status: string(r.Status), CreatedAt: r.CreatedAt}
		},
		attachments: attachments,
		activity:    activity,
	}
}

// List GET /{kind}.
func (h *ItemsHandler[T, R]) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter, err := parseItemFilter(c)
	if err != nil {
		return err
	}
	page, err := h.items.List(c.UserContext(), p, filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPageResponse(page, h.view))
}

// Get GET /{kind}/:id.
func (h *ItemsHandler[T, R]) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.items.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(h.view(item))
}

// Summary GET /{kind}/metrics/summary.
func (h *ItemsHandler[T, R]) Summary(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	summary, err := h.summary(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// Permissions GET /{kind}/permissions and GET /{kind}/:id/permissions.
func (h *ItemsHandler[T, R]) Permissions(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var id string
	if c.Params("id") != "" {
		if id, err = pathID(c, "id"); err != nil {
			return err
		}
	}
	view, err := h.items.Permissions(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Create POST /{kind}.
func (h *ItemsHandler[T, R]) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.items.Create(c.UserContext(), p, req.Input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(h.created(item))
}

// Update PATCH /{kind}/:id.
func (h *ItemsHandler[T, R]) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if _, err := h.items.Update(c.UserContext(), p, id, req.Update()); err != nil {
		return err
	}
	return c.JSON(dto.OKResponse{OK: true, ID: id})
}

// ChangeStatus POST /{kind}/:id/status.
func (h *ItemsHandler[T, R]) ChangeStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.items.ChangeStatus(c.UserContext(), p, id, req.Change())
	if err != nil {
		return err
	}
	return c.JSON(dto.OKResponse{OK: true, ID: result.ID, Status: result.Status})
}

// Delete DELETE /{kind}/:id.
func (h *ItemsHandler[T, R]) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.items.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return c.JSON(dto.OKResponse{OK: true})
}

// Upload POST /{kind}/:id/attachments with a multipart "file" field.
func (h *ItemsHandler[T, R]) Upload(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file is required", map[string]any{"field": "file"})
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	attachment, err := h.attachments.Upload(c.UserContext(), p, h.kind, id, service.Upload{
		FileName: header.Filename,
		MimeType: header.Header.Get(fiber.HeaderContentType),
		Body:     file,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK(dto.NewAttachmentResponse(attachment)))
}

// Attachments GET /{kind}/:id/attachments.
func (h *ItemsHandler[T, R]) Attachments(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.attachments.List(c.UserContext(), p, h.kind, id)
	if err != nil {
		return err
	}
	out := make([]dto.AttachmentResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.NewAttachmentResponse(&list[i]))
	}
	return c.JSON(dto.OK(out))
}

// Activity GET /{kind}/:id/activity.
func (h *ItemsHandler[T, R]) Activity(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.activity.ForItem(c.UserContext(), p, id, parseInt(c.Query("limit"), 0))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(activityResponses(entries)))
}

func activityResponses(entries []domain.ActivityLogEntry) []dto.ActivityResponse {
	out := make([]dto.ActivityResponse, 0, len(entries))
	for i := range entries {
		out = append(out, dto.NewActivityResponse(&entries[i]))
	}
	return out
}
