package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RequirementService coordinates requirement workflows.
type RequirementService struct {
	core         *lifecycle[domain.Requirement]
	requirements repository.RequirementRepository
}

// NewRequirementService constructs the service.
func NewRequirementService(deps ItemDependencies) *RequirementService {
	return &RequirementService{
		requirements: deps.Repos.Requirements,
		core: &lifecycle[domain.Requirement]{
			kind:          domain.KindRequirement,
			resource:      "requirement",
			initialStatus: string(domain.RequirementStatusPending),
			validStatus:   func(s string) bool { return domain.RequirementStatus(s).Valid() },
			completed:     func(s string) bool { return domain.RequirementStatus(s).Completed() },
			validType:     func(t string) bool { return domain.RequirementType(t).Valid() },
			defaultType:   string(domain.RequirementTypeOther),
			state:         requirementState,
			build:         buildRequirement,
			repo:          deps.Repos.Requirements,
			users:         deps.Repos.Users,
			departments:   deps.Repos.Departments,
			dispatcher:    deps.Dispatcher,
			now:           deps.clock(),
		},
	}
}

func requirementState(r *domain.Requirement) itemState {
	return itemState{
		ID:             r.ID,
		Title:          r.Title,
		Status:         string(r.Status),
		AssignedTo:     r.AssignedTo,
		AreaID:         r.DepartmentID,
		LastModifiedAt: r.LastModifiedAt,
		open:           r.IsOpen(),
	}
}

func buildRequirement(in ItemInput, creatorID, status string) *domain.Requirement {
	return &domain.Requirement{
		Title:        in.Title,
		Description:  in.Description,
		Type:         domain.RequirementType(in.Type),
		Priority:     domain.Priority(in.Priority),
		Status:       domain.RequirementStatus(status),
		DepartmentID: in.DepartmentID,
		AssignedTo:   in.AssignedTo,
		CreatedBy:    creatorID,
	}
}

func (s *RequirementService) List(ctx context.Context, p *domain.Principal, filter repository.ItemFilter) (*repository.Page[domain.Requirement], error) {
	return s.core.list(ctx, p, filter)
}

func (s *RequirementService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.Requirement, error) {
	return s.core.get(ctx, p, id)
}

func (s *RequirementService) Permissions(ctx context.Context, p *domain.Principal, id string) (policy.PermissionView, error) {
	return s.core.permissions(ctx, p, id)
}

func (s *RequirementService) Create(ctx context.Context, p *domain.Principal, in ItemInput) (*domain.Requirement, error) {
	return s.core.create(ctx, p, in)
}

func (s *RequirementService) Update(ctx context.Context, p *domain.Principal, id string, in ItemUpdate) (*domain.Requirement, error) {
	return s.core.update(ctx, p, id, in)
}

func (s *RequirementService) ChangeStatus(ctx context.Context, p *domain.Principal, id string, in StatusChange) (*StatusResult, error) {
	return s.core.changeStatus(ctx, p, id, in)
}

func (s *RequirementService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	return s.core.remove(ctx, p, id)
}

// RequirementSummary counts requirements per status.
type RequirementSummary struct {
	Total      int `json:"totalRequirements"`
	Pending    int `json:"pendingRequirements"`
	InProgress int `json:"inProgressRequirements"`
	Delivered  int `json:"deliveredRequirements"`
	Closed     int `json:"closedRequirements"`
}

func (s *RequirementService) Summary(ctx context.Context, p *domain.Principal) (*RequirementSummary, error) {
	if p == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	var out RequirementSummary
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, status domain.RequirementStatus) {
		g.Go(func() error {
			n, err := s.requirements.Count(gctx, status)
			if err != nil {
				return apperrors.NewStoreError(apperrors.KindQueryFailed, "requirement", err)
			}
			*dst = n
			return nil
		})
	}
	count(&out.Total, "")
	count(&out.Pending, domain.RequirementStatusPending)
	count(&out.InProgress, domain.RequirementStatusInProgress)
	count(&out.Delivered, domain.RequirementStatusDelivered)
	count(&out.Closed, domain.RequirementStatusClosed)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
