package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const maxTitleLength = 200

// ItemInput is the create payload shared by incidents and requirements.
type ItemInput struct {
	Title        string
	Description  string
	Type         string
	Priority     string
	DepartmentID int64
	AssignedTo   *string
}

// ItemUpdate is a partial update. Nil fields are left unchanged.
type ItemUpdate struct {
	Title        *string
	Description  *string
	Type         *string
	Priority     *string
	AssignedTo   repository.Optional[string]
	DepartmentID *int64
	Status       *string
	CompletedAt  *time.Time

	ExpectedLastModifiedAt *time.Time
}

// fields lists the policy fields the update touches.
func (u ItemUpdate) fields() []policy.Field {
	var out []policy.Field
	if u.Title != nil {
		out = append(out, policy.FieldTitle)
	}
	if u.Description != nil {
		out = append(out, policy.FieldDescription)
	}
	if u.Type != nil {
		out = append(out, policy.FieldType)
	}
	if u.Priority != nil {
		out = append(out, policy.FieldPriority)
	}
	if u.AssignedTo.Set {
		out = append(out, policy.FieldAssignedTo)
	}
	if u.DepartmentID != nil {
		out = append(out, policy.FieldDepartment)
	}
	if u.Status != nil || u.CompletedAt != nil {
		out = append(out, policy.FieldStatus)
	}
	return out
}

// StatusChange is the body of a status transition.
type StatusChange struct {
	Status                 string
	CompletedAt            *time.Time
	ExpectedLastModifiedAt *time.Time
}

// StatusResult is returned by a status transition.
type StatusResult struct {
	ID     string
	Status string
}

// itemState is the kind-neutral view of an incident or requirement.
type itemState struct {
	ID             string
	Title          string
	Status         string
	AssignedTo     *string
	AreaID         int64
	LastModifiedAt time.Time
	open           bool
}

func (s itemState) IsOpen() bool { return s.open }

// itemRepo is the subset of the incident and requirement repositories the
// lifecycle needs.
type itemRepo[T any] interface {
	List(ctx context.Context, filter repository.ItemFilter) (*repository.Page[T], error)
	GetByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, id string, patch repository.ItemPatch) error
	Delete(ctx context.Context, id string) error
}

// lifecycle implements create, update, status change and delete once for
// both item kinds.
type lifecycle[T any] struct {
	kind          domain.ItemKind
	resource      string
	initialStatus string
	validStatus   func(string) bool
	completed     func(string) bool
	validType     func(string) bool
	defaultType   string
	state         func(*T) itemState
	build         func(in ItemInput, creatorID, status string) *T

	repo        itemRepo[T]
	users       repository.UserRepository
	departments repository.DepartmentRepository
	dispatcher  events.Dispatcher
	now         func() time.Time
}

func (l *lifecycle[T]) list(ctx context.Context, p *domain.Principal, filter repository.ItemFilter) (*repository.Page[T], error) {
	if p == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	filter.Search = strings.TrimSpace(filter.Search)
	page, err := l.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, l.resource, err)
	}
	return page, nil
}

func (l *lifecycle[T]) get(ctx context.Context, p *domain.Principal, id string) (*T, error) {
	if p == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	item, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, l.resource, err)
	}
	return item, nil
}

// permissions returns the view for a new item when id is empty.
func (l *lifecycle[T]) permissions(ctx context.Context, p *domain.Principal, id string) (policy.PermissionView, error) {
	if p == nil {
		return policy.PermissionView{}, apperrors.NewUnauthenticated("authentication required")
	}
	if id == "" {
		return policy.ComputePermissions(p.RoleName, nil), nil
	}
	item, err := l.get(ctx, p, id)
	if err != nil {
		return policy.PermissionView{}, err
	}
	return policy.ComputePermissions(p.RoleName, l.state(item)), nil
}

func (l *lifecycle[T]) create(ctx context.Context, p *domain.Principal, in ItemInput) (*T, error) {
	if err := auth.EnsurePrivileged(p); err != nil {
		return nil, err
	}
	changed := []policy.Field{policy.FieldTitle, policy.FieldDepartment}
	if in.Description != "" {
		changed = append(changed, policy.FieldDescription)
	}
	if in.Type != "" {
		changed = append(changed, policy.FieldType)
	}
	if in.Priority != "" {
		changed = append(changed, policy.FieldPriority)
	}
	if in.AssignedTo != nil {
		changed = append(changed, policy.FieldAssignedTo)
	}
	if err := policy.Authorize(policy.ComputePermissions(p.RoleName, nil), changed); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Type == "" {
		in.Type = l.defaultType
	}
	if in.Priority == "" {
		in.Priority = string(domain.PriorityMedium)
	}
	if err := l.validateContent(&in.Title, &in.Type, &in.Priority); err != nil {
		return nil, err
	}
	if in.DepartmentID <= 0 {
		return nil, apperrors.NewValidationError("departmentId is required", map[string]any{"field": "departmentId"})
	}
	if err := l.checkDepartment(ctx, in.DepartmentID); err != nil {
		return nil, err
	}
	if in.AssignedTo != nil {
		if err := l.checkAssignee(ctx, *in.AssignedTo); err != nil {
			return nil, err
		}
	}

	item := l.build(in, p.ID, l.initialStatus)
	if err := l.repo.Create(ctx, item); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindInsertFailed, l.resource, err)
	}

	state := l.state(item)
	l.dispatch(p, state, events.EventItemCreated, nil)
	if state.AssignedTo != nil {
		l.dispatch(p, state, events.EventItemAssigned, events.ItemAssignedPayload{Assignee: *state.AssignedTo})
	}
	return item, nil
}

func (l *lifecycle[T]) update(ctx context.Context, p *domain.Principal, id string, in ItemUpdate) (*T, error) {
	if err := auth.EnsurePrivileged(p); err != nil {
		return nil, err
	}
	changed := in.fields()
	if len(changed) == 0 {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}
	current, err := l.get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	before := l.state(current)
	if err := policy.Authorize(policy.ComputePermissions(p.RoleName, before), changed); err != nil {
		return nil, err
	}

	now := l.now()
	patch := repository.ItemPatch{
		Type:                   in.Type,
		Priority:               in.Priority,
		AssignedTo:             in.AssignedTo,
		DepartmentID:           in.DepartmentID,
		ModifiedBy:             p.ID,
		ModifiedAt:             now,
		ExpectedLastModifiedAt: in.ExpectedLastModifiedAt,
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		patch.Title = &title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		patch.Description = &description
	}
	if err := l.validateContent(patch.Title, patch.Type, patch.Priority); err != nil {
		return nil, err
	}
	if patch.DepartmentID != nil {
		if err := l.checkDepartment(ctx, *patch.DepartmentID); err != nil {
			return nil, err
		}
	}
	if patch.AssignedTo.Set && patch.AssignedTo.Value != nil {
		if err := l.checkAssignee(ctx, *patch.AssignedTo.Value); err != nil {
			return nil, err
		}
	}
	if in.Status != nil || in.CompletedAt != nil {
		status := before.Status
		if in.Status != nil {
			status = *in.Status
		}
		if !l.validStatus(status) {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
		}
		completedAt, err := l.completion(status, in.CompletedAt, now)
		if err != nil {
			return nil, err
		}
		patch.Status = &status
		patch.CompletedAt = completedAt
	}

	if err := l.repo.Update(ctx, id, patch); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindUpdateFailed, l.resource, err)
	}
	updated, err := l.get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	after := l.state(updated)
	names := make([]string, 0, len(changed))
	for _, f := range changed {
		names = append(names, string(f))
	}
	l.dispatch(p, after, events.EventItemUpdated, events.ItemUpdatedPayload{Fields: names})
	if after.Status != before.Status {
		l.dispatch(p, after, events.EventItemStatusChanged, events.ItemStatusChangedPayload{OldStatus: before.Status, NewStatus: after.Status})
	}
	if reassigned(before.AssignedTo, after.AssignedTo) {
		l.dispatch(p, after, events.EventItemAssigned, events.ItemAssignedPayload{PreviousAssignee: before.AssignedTo, Assignee: *after.AssignedTo})
	}
	return updated, nil
}

func (l *lifecycle[T]) changeStatus(ctx context.Context, p *domain.Principal, id string, in StatusChange) (*StatusResult, error) {
	status := strings.TrimSpace(in.Status)
	if !l.validStatus(status) {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": in.Status})
	}
	if err := auth.EnsurePrivileged(p); err != nil {
		return nil, err
	}
	current, err := l.get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	before := l.state(current)
	if !policy.ComputePermissions(p.RoleName, before).CanEditStatus {
		return nil, apperrors.NewForbidden("your role cannot change status")
	}

	now := l.now()
	completedAt, err := l.completion(status, in.CompletedAt, now)
	if err != nil {
		return nil, err
	}
	patch := repository.ItemPatch{
		Status:                 &status,
		CompletedAt:            completedAt,
		ModifiedBy:             p.ID,
		ModifiedAt:             now,
		ExpectedLastModifiedAt: in.ExpectedLastModifiedAt,
	}
	if err := l.repo.Update(ctx, id, patch); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindUpdateFailed, l.resource, err)
	}

	after := before
	after.Status = status
	l.dispatch(p, after, events.EventItemStatusChanged, events.ItemStatusChangedPayload{OldStatus: before.Status, NewStatus: status})
	return &StatusResult{ID: id, Status: status}, nil
}

func (l *lifecycle[T]) remove(ctx context.Context, p *domain.Principal, id string) error {
	if err := auth.EnsurePrivileged(p); err != nil {
		return err
	}
	current, err := l.get(ctx, p, id)
	if err != nil {
		return err
	}
	state := l.state(current)
	if !policy.AllowsDelete(policy.ComputePermissions(p.RoleName, state)) {
		return apperrors.NewForbidden("item is read-only for your role")
	}
	if err := l.repo.Delete(ctx, id); err != nil {
		return apperrors.NewStoreError(apperrors.KindDeleteFailed, l.resource, err)
	}
	l.dispatch(p, state, events.EventItemDeleted, nil)
	return nil
}

// completion decides the completion timestamp written with status.
// Terminal statuses take the supplied value or now; others clear it.
func (l *lifecycle[T]) completion(status string, supplied *time.Time, now time.Time) (repository.Optional[time.Time], error) {
	if !l.completed(status) {
		if supplied != nil {
			return repository.Optional[time.Time]{}, apperrors.NewValidationError(
				"completion timestamp requires a terminal status", map[string]any{"status": status})
		}
		return repository.Optional[time.Time]{Set: true}, nil
	}
	at := now
	if supplied != nil {
		at = supplied.UTC().Truncate(time.Microsecond)
	}
	return repository.Some(&at), nil
}

func (l *lifecycle[T]) validateContent(title, itemType, priority *string) error {
	if title != nil {
		if *title == "" {
			return apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
		}
		if utf8.RuneCountInString(*title) > maxTitleLength {
			return apperrors.NewValidationError("title is too long", map[string]any{"field": "title", "max": maxTitleLength})
		}
	}
	if itemType != nil && !l.validType(*itemType) {
		return apperrors.NewValidationError("invalid type", map[string]any{"type": *itemType})
	}
	if priority != nil && !domain.Priority(*priority).Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": *priority})
	}
	return nil
}

func (l *lifecycle[T]) checkDepartment(ctx context.Context, id int64) error {
	dept, err := l.departments.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return apperrors.NewValidationError("department does not exist", map[string]any{"departmentId": id})
		}
		return apperrors.NewStoreError(apperrors.KindQueryFailed, "department", err)
	}
	if !dept.IsActive {
		return apperrors.NewValidationError("department is inactive", map[string]any{"departmentId": id})
	}
	return nil
}

func (l *lifecycle[T]) checkAssignee(ctx context.Context, userID string) error {
	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) || apperrors.IsKind(err, apperrors.KindValidation) {
			return apperrors.NewValidationError("assignee does not exist", map[string]any{"assignedTo": userID})
		}
		return apperrors.NewStoreError(apperrors.KindQueryFailed, "user", err)
	}
	if !user.IsActive {
		return apperrors.NewValidationError("assignee is inactive", map[string]any{"assignedTo": userID})
	}
	return nil
}

func (l *lifecycle[T]) dispatch(p *domain.Principal, state itemState, eventType events.EventType, payload any) {
	if l.dispatcher == nil {
		return
	}
	l.dispatcher.Dispatch(events.Event{
		Type:      eventType,
		Kind:      l.kind,
		ItemID:    state.ID,
		ItemTitle: state.Title,
		Actor:     events.ActorFromPrincipal(p),
		Payload:   payload,
	})
}

// reassigned reports a change to a non-empty assignee.
func reassigned(before, after *string) bool {
	if after == nil {
		return false
	}
	return before == nil || *before != *after
}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
