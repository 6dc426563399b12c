package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type activityRepo struct{ s *Store }

func (r *activityRepo) Append(_ context.Context, entry *domain.ActivityLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = newID()
	entry.CreatedAt = r.s.now()
	r.s.activity = append(r.s.activity, *entry)
	return nil
}

func (r *activityRepo) ListByItem(_ context.Context, itemID string, limit int) ([]domain.ActivityLogEntry, error) {
	return r.recent(limit, func(e domain.ActivityLogEntry) bool { return e.ItemID == itemID }), nil
}

func (r *activityRepo) ListRecent(_ context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	return r.recent(limit, func(domain.ActivityLogEntry) bool { return true }), nil
}

func (r *activityRepo) recent(limit int, keep func(domain.ActivityLogEntry) bool) []domain.ActivityLogEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	limit = repository.PageRequest{Limit: limit}.Normalize().Limit
	result := []domain.ActivityLogEntry{}
	for i := len(r.s.activity) - 1; i >= 0 && len(result) < limit; i-- {
		if keep(r.s.activity[i]) {
			result = append(result, r.s.activity[i])
		}
	}
	return result
}

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[n.UserID]; !ok {
		return apperrors.NewConflict("notification recipient is invalid", map[string]any{"userId": n.UserID})
	}
	n.ID = newID()
	n.IsRead = false
	n.CreatedAt = r.s.now()
	stored := *n
	r.s.notifications[n.ID] = &stored
	return nil
}

func (r *notificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, req repository.PageRequest) (*repository.Page[domain.Notification], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []domain.Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		matched = append(matched, *n)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, req), nil
}

func (r *notificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, notification := range r.s.notifications {
		if notification.UserID == userID && !notification.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *notificationRepo) MarkRead(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return apperrors.NewNotFound("notification", map[string]any{"id": id})
	}
	n.IsRead = true
	return nil
}

func (r *notificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var updated int64
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

type registrationRepo struct{ s *Store }

func (r *registrationRepo) Create(_ context.Context, req *domain.RegistrationRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.departments[req.DepartmentID]; !ok {
		return apperrors.NewConflict("department reference is invalid", map[string]any{"departmentId": req.DepartmentID})
	}
	if req.Status == domain.RegistrationPending && r.s.pendingFor(req.Email) {
		return apperrors.NewConflict("registration request already exists", map[string]any{"constraint": "registration_requests_pending_email_key"})
	}
	req.ID = newID()
	req.CreatedAt = r.s.now()
	stored := *req
	r.s.registrations[req.ID] = &stored
	return nil
}

// pendingFor reports a pending request for email. Callers hold the lock.
func (s *Store) pendingFor(email string) bool {
	for _, existing := range s.registrations {
		if existing.Status == domain.RegistrationPending && strings.EqualFold(existing.Email, email) {
			return true
		}
	}
	return false
}

func (r *registrationRepo) GetByID(_ context.Context, id string) (*domain.RegistrationRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.registrations[id]
	if !ok {
		return nil, apperrors.NewNotFound("registration request", map[string]any{"id": id})
	}
	copied := *req
	return &copied, nil
}

func (r *registrationRepo) List(_ context.Context, status *domain.RegistrationStatus, page repository.PageRequest) (*repository.Page[domain.RegistrationRequest], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []domain.RegistrationRequest
	for _, req := range r.s.registrations {
		if status != nil && req.Status != *status {
			continue
		}
		matched = append(matched, *req)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, page), nil
}

func (r *registrationRepo) HasPending(_ context.Context, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.pendingFor(email), nil
}

func (r *registrationRepo) Approve(_ context.Context, id, reviewerID string, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, err := r.s.lockPending(id)
	if err != nil {
		return err
	}
	if err := r.s.insertUser(user); err != nil {
		return err
	}
	r.s.markReviewed(req, reviewerID, domain.RegistrationApproved)
	return nil
}

func (r *registrationRepo) Reject(_ context.Context, id, reviewerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, err := r.s.lockPending(id)
	if err != nil {
		return err
	}
	r.s.markReviewed(req, reviewerID, domain.RegistrationRejected)
	return nil
}

func (s *Store) lockPending(id string) (*domain.RegistrationRequest, error) {
	req, ok := s.registrations[id]
	if !ok {
		return nil, apperrors.NewNotFound("registration request", map[string]any{"id": id})
	}
	if req.Status != domain.RegistrationPending {
		return nil, apperrors.NewConflict("registration request already reviewed", map[string]any{"status": req.Status})
	}
	return req, nil
}

func (s *Store) markReviewed(req *domain.RegistrationRequest, reviewerID string, status domain.RegistrationStatus) {
	req.Status = status
	req.ReviewedBy = ptr(reviewerID)
	req.ReviewedAt = ptr(s.now())
}

type attachmentRepo struct{ s *Store }

func (r *attachmentRepo) Create(_ context.Context, a *domain.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if (a.IncidentID == nil) == (a.RequirementID == nil) {
		return apperrors.NewValidationError("attachment must reference exactly one item", nil)
	}
	if a.IncidentID != nil {
		if _, ok := r.s.incidents.rows[*a.IncidentID]; !ok {
			return apperrors.NewConflict("incident reference is invalid", map[string]any{"incidentId": *a.IncidentID})
		}
	}
	if a.RequirementID != nil {
		if _, ok := r.s.requirements.rows[*a.RequirementID]; !ok {
			return apperrors.NewConflict("requirement reference is invalid", map[string]any{"requirementId": *a.RequirementID})
		}
	}
	a.ID = newID()
	a.CreatedAt = r.s.now()
	stored := *a
	r.s.attachments[a.ID] = &stored
	return nil
}

func (r *attachmentRepo) GetByID(_ context.Context, id string) (*domain.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.attachments[id]
	if !ok {
		return nil, apperrors.NewNotFound("attachment", map[string]any{"id": id})
	}
	copied := *a
	return &copied, nil
}

func (r *attachmentRepo) ListByItem(_ context.Context, kind domain.ItemKind, itemID string) ([]domain.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []domain.Attachment{}
	for _, a := range r.s.attachments {
		owner := a.IncidentID
		if kind == domain.KindRequirement {
			owner = a.RequirementID
		}
		if owner != nil && *owner == itemID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}
