package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// IncidentService coordinates incident workflows.
type IncidentService struct {
	core      *lifecycle[domain.Incident]
	incidents repository.IncidentRepository
}

// ItemDependencies bundles the collaborators of the item services.
type ItemDependencies struct {
	Repos      *repository.Repositories
	Dispatcher events.Dispatcher
	// Now overrides the clock; nil uses the wall clock.
	Now func() time.Time
}

func (d ItemDependencies) clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return utcNow
}

// NewIncidentService constructs the service.
func NewIncidentService(deps ItemDependencies) *IncidentService {
	return &IncidentService{
		incidents: deps.Repos.Incidents,
		core: &lifecycle[domain.Incident]{
			kind:          domain.KindIncident,
			resource:      "incident",
			initialStatus: string(domain.IncidentStatusOpen),
			validStatus:   func(s string) bool { return domain.IncidentStatus(s).Valid() },
			completed:     func(s string) bool { return domain.IncidentStatus(s).Completed() },
			validType:     func(t string) bool { return domain.IncidentType(t).Valid() },
			defaultType:   string(domain.IncidentTypeTechnical),
			state:         incidentState,
			build:         buildIncident,
			repo:          deps.Repos.Incidents,
			users:         deps.Repos.Users,
			departments:   deps.Repos.Departments,
			dispatcher:    deps.Dispatcher,
			now:           deps.clock(),
		},
	}
}

func incidentState(i *domain.Incident) itemState {
	return itemState{
		ID:             i.ID,
		Title:          i.Title,
		Status:         string(i.Status),
		AssignedTo:     i.AssignedTo,
		AreaID:         i.AffectedAreaID,
		LastModifiedAt: i.LastModifiedAt,
		open:           i.IsOpen(),
	}
}

func buildIncident(in ItemInput, creatorID, status string) *domain.Incident {
	return &domain.Incident{
		Title:          in.Title,
		Description:    in.Description,
		Type:           domain.IncidentType(in.Type),
		Priority:       domain.Priority(in.Priority),
		Status:         domain.IncidentStatus(status),
		AffectedAreaID: in.DepartmentID,
		AssignedTo:     in.AssignedTo,
		CreatedBy:      creatorID,
	}
}

// List returns a filtered page of incidents.
func (s *IncidentService) List(ctx context.Context, p *domain.Principal, filter repository.ItemFilter) (*repository.Page[domain.Incident], error) {
	return s.core.list(ctx, p, filter)
}

// Get returns one enriched incident.
func (s *IncidentService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.Incident, error) {
	return s.core.get(ctx, p, id)
}

// Permissions returns what p may do with the incident, or with a new one
// when id is empty.
func (s *IncidentService) Permissions(ctx context.Context, p *domain.Principal, id string) (policy.PermissionView, error) {
	return s.core.permissions(ctx, p, id)
}

// Create opens a new incident.
func (s *IncidentService) Create(ctx context.Context, p *domain.Principal, in ItemInput) (*domain.Incident, error) {
	return s.core.create(ctx, p, in)
}

// Update applies a partial update and returns the stored incident.
func (s *IncidentService) Update(ctx context.Context, p *domain.Principal, id string, in ItemUpdate) (*domain.Incident, error) {
	return s.core.update(ctx, p, id, in)
}

// ChangeStatus moves the incident to a new status.
func (s *IncidentService) ChangeStatus(ctx context.Context, p *domain.Principal, id string, in StatusChange) (*StatusResult, error) {
	return s.core.changeStatus(ctx, p, id, in)
}

// Delete removes the incident.
func (s *IncidentService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	return s.core.remove(ctx, p, id)
}

// IncidentSummary counts incidents per status.
type IncidentSummary struct {
	Total      int `json:"totalIncidents"`
	Open       int `json:"openIncidents"`
	InProgress int `json:"inProgressIncidents"`
	Resolved   int `json:"resolvedIncidents"`
	Closed     int `json:"closedIncidents"`
}

// Summary runs the five counts concurrently.
func (s *IncidentService) Summary(ctx context.Context, p *domain.Principal) (*IncidentSummary, error) {
	if p == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	var out IncidentSummary
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, status domain.IncidentStatus) {
		g.Go(func() error {
			n, err := s.incidents.Count(gctx, status)
			if err != nil {
				return apperrors.NewStoreError(apperrors.KindQueryFailed, "incident", err)
			}
			*dst = n
			return nil
		})
	}
	count(&out.Total, "")
	count(&out.Open, domain.IncidentStatusOpen)
	count(&out.InProgress, domain.IncidentStatusInProgress)
	count(&out.Resolved, domain.IncidentStatusResolved)
	count(&out.Closed, domain.IncidentStatusClosed)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
