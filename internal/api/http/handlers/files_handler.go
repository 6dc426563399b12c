package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// FilesHandler serves attachment downloads and the global activity feed.
type FilesHandler struct {
	attachments *service.AttachmentService
	activity    *service.ActivityService
}

// NewFilesHandler constructs handler.
func NewFilesHandler(attachments *service.AttachmentService, activity *service.ActivityService) *FilesHandler {
	return &FilesHandler{attachments: attachments, activity: activity}
}

// Download GET /attachments/:id.
func (h *FilesHandler) Download(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	attachment, file, err := h.attachments.Open(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return apperrors.NewInternalError(err)
	}
	mime := attachment.MimeType
	if mime == "" {
		mime = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, mime)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	// The response body stream closes the file once written.
	return c.SendStream(file, int(info.Size()))
}

// Activity GET /activity?limit=.
func (h *FilesHandler) Activity(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	entries, err := h.activity.Recent(c.UserContext(), p, parseInt(c.Query("limit"), 0))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(activityResponses(entries)))
}
