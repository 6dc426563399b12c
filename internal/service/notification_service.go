package service

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// NotificationService serves the caller's inbox.
type NotificationService struct {
	notifications repository.NotificationRepository
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// Inbox is a page of notifications plus the unread count.
type Inbox struct {
	*repository.Page[domain.Notification]
	Unread int
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, p *domain.Principal, unreadOnly bool, page repository.PageRequest) (*Inbox, error) {
	if p == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	items, err := s.notifications.ListByUser(ctx, p.ID, unreadOnly, page)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "notification", err)
	}
	unread, err := s.notifications.CountUnread(ctx, p.ID)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "notification", err)
	}
	return &Inbox{Page: items, Unread: unread}, nil
}

// MarkRead marks one of the caller's notifications read.
func (s *NotificationService) MarkRead(ctx context.Context, p *domain.Principal, id string) error {
	if p == nil {
		return apperrors.NewUnauthenticated("authentication required")
	}
	if err := s.notifications.MarkRead(ctx, id, p.ID); err != nil {
		return apperrors.NewStoreError(apperrors.KindUpdateFailed, "notification", err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the caller read.
func (s *NotificationService) MarkAllRead(ctx context.Context, p *domain.Principal) (int64, error) {
	if p == nil {
		return 0, apperrors.NewUnauthenticated("authentication required")
	}
	n, err := s.notifications.MarkAllRead(ctx, p.ID)
	if err != nil {
		return 0, apperrors.NewStoreError(apperrors.KindUpdateFailed, "notification", err)
	}
	return n, nil
}
