package service

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ActivityService reads the audit trail.
type ActivityService struct {
	activity repository.ActivityRepository
}

func NewActivityService(activity repository.ActivityRepository) *ActivityService {
	return &ActivityService{activity: activity}
}

// Recent returns the latest entries across all items.
func (s *ActivityService) Recent(ctx context.Context, p *domain.Principal, limit int) ([]domain.ActivityLogEntry, error) {
	if err := auth.EnsurePrivileged(p); err != nil {
		return nil, err
	}
	entries, err := s.activity.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "activity", err)
	}
	return entries, nil
}

// ForItem returns the latest entries of one item.
func (s *ActivityService) ForItem(ctx context.Context, p *domain.Principal, itemID string, limit int) ([]domain.ActivityLogEntry, error) {
	if p == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	entries, err := s.activity.ListByItem(ctx, itemID, limit)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, "activity", err)
	}
	return entries, nil
}
