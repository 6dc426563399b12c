package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// NotificationsHandler serves the caller's inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /notifications?unread=true&page=&limit=.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	inbox, err := h.notifications.List(c.UserContext(), p, c.QueryBool("unread", false), pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.InboxResponse{
		PageResponse: dto.NewPageResponse(inbox.Page, dto.NewNotificationResponse),
		Unread:       inbox.Unread,
	})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), p, id); err != nil {
		return err
	}
	return c.JSON(dto.OKResponse{OK: true, ID: id})
}

// MarkAllRead POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkAllRead(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(fiber.Map{"updated": n}))
}
