package service

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AttachmentService stores files against incidents and requirements.
type AttachmentService struct {
	attachments  repository.AttachmentRepository
	incidents    repository.IncidentRepository
	requirements repository.RequirementRepository
	store        *storage.FileStore
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(repos *repository.Repositories, store *storage.FileStore, dispatcher events.Dispatcher, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		attachments:  repos.Attachments,
		incidents:    repos.Incidents,
		requirements: repos.Requirements,
		store:        store,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// Upload is one file sent against an item.
type Upload struct {
	FileName string
	MimeType string
	Body     io.Reader
}

// Upload stores the file and records it. Writers of the item may attach.
func (s *AttachmentService) Upload(ctx context.Context, p *domain.Principal, kind domain.ItemKind, itemID string, in Upload) (*domain.Attachment, error) {
	if err := auth.EnsurePrivileged(p); err != nil {
		return nil, err
	}
	state, err := s.item(ctx, kind, itemID)
	if err != nil {
		return nil, err
	}
	if policy.ComputePermissions(p.RoleName, state).IsReadOnly {
		return nil, apperrors.NewForbidden("item is read-only for your role")
	}
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		return nil, apperrors.NewValidationError("file name is required", map[string]any{"field": "file"})
	}

	obj, err := s.store.Put(p.ID, name, in.Body)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, apperrors.NewValidationError("file exceeds upload limit", map[string]any{"field": "file"})
		}
		return nil, apperrors.NewInternalError(err)
	}

	attachment := &domain.Attachment{
		FileName:    name,
		StoragePath: obj.Key,
		MimeType:    in.MimeType,
		SizeBytes:   obj.Size,
		UploadedBy:  p.ID,
	}
	if attachment.MimeType == "" {
		attachment.MimeType = "application/octet-stream"
	}
	if kind == domain.KindRequirement {
		attachment.RequirementID = &itemID
	} else {
		attachment.IncidentID = &itemID
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		if rmErr := s.store.Delete(obj.Key); rmErr != nil {
			s.logger.Warn("orphaned attachment object", zap.String("key", obj.Key), zap.Error(rmErr))
		}
		return nil, apperrors.NewStoreError(apperrors.KindInsertFailed, "attachment", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(events.Event{
			Type:      events.EventAttachmentAdded,
			Kind:      kind,
			ItemID:    itemID,
			ItemTitle: state.Title,
			Actor:     events.ActorFromPrincipal(p),
			Payload:   events.AttachmentAddedPayload{AttachmentID: attachment.ID, FileName: attachment.FileName},
		})
	}
	return attachment, nil
}

// List returns the attachments of an item.
func (s *AttachmentService) List(ctx context.Context, p *domain.Principal, kind domain.ItemKind, itemID string) ([]domain.Attachment, error) {
	if p == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	if _, err := s.item(ctx, kind, itemID); err != nil {
		return nil, err
	}
	list, err := s.attachments.ListByItem(ctx, kind, itemID)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "attachment", err)
	}
	return list, nil
}

// Open returns the attachment row and its content. The caller closes the file.
func (s *AttachmentService) Open(ctx context.Context, p *domain.Principal, id string) (*domain.Attachment, *os.File, error) {
	if p == nil {
		return nil, nil, apperrors.NewUnauthenticated("authentication required")
	}
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "attachment", err)
	}
	f, err := s.store.Open(attachment.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, apperrors.NewNotFound("attachment content", map[string]any{"id": id})
		}
		return nil, nil, apperrors.NewInternalError(err)
	}
	return attachment, f, nil
}

func (s *AttachmentService) item(ctx context.Context, kind domain.ItemKind, id string) (itemState, error) {
	switch kind {
	case domain.KindIncident:
		incident, err := s.incidents.GetByID(ctx, id)
		if err != nil {
			return itemState{}, apperrors.NewStoreError(apperrors.KindQueryFailed, "incident", err)
		}
		return incidentState(incident), nil
	case domain.KindRequirement:
		requirement, err := s.requirements.GetByID(ctx, id)
		if err != nil {
			return itemState{}, apperrors.NewStoreError(apperrors.KindQueryFailed, "requirement", err)
		}
		return requirementState(requirement), nil
	}
	return itemState{}, apperrors.NewValidationError("unknown item kind", map[string]any{"kind": kind})
}
