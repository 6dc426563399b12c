// Package memstore keeps every repository in process memory. It backs the
// service when no Postgres DSN is configured and serves as the fake in tests.
package memstore

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Store is a mutex-guarded set of tables with the same constraints as the
// Postgres schema: unique emails, foreign keys on delete, and the
// completion-timestamp check.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	incidents     itemTable
	requirements  itemTable
	users         map[string]*domain.User
	departments   map[int64]*domain.Department
	roles         map[int64]*domain.Role
	activity      []domain.ActivityLogEntry
	notifications map[string]*domain.Notification
	registrations map[string]*domain.RegistrationRequest
	attachments   map[string]*domain.Attachment
	nextDeptID    int64
}

// New returns an empty store seeded with the three roles.
func New() *Store {
	s := &Store{
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		incidents: itemTable{
			resource:  "incident",
			completed: func(status string) bool { return domain.IncidentStatus(status).Completed() },
			rows:      map[string]*item{},
		},
		requirements: itemTable{
			resource:  "requirement",
			completed: func(status string) bool { return domain.RequirementStatus(status).Completed() },
			rows:      map[string]*item{},
		},
		users:         map[string]*domain.User{},
		departments:   map[int64]*domain.Department{},
		roles:         map[int64]*domain.Role{},
		notifications: map[string]*domain.Notification{},
		registrations: map[string]*domain.RegistrationRequest{},
		attachments:   map[string]*domain.Attachment{},
	}
	for i, name := range []domain.RoleName{domain.RoleAdmin, domain.RoleTechnician, domain.RoleRequester} {
		id := int64(i + 1)
		s.roles[id] = &domain.Role{ID: id, Name: name, Description: string(name), IsActive: true}
	}
	return s
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Incidents:     &incidentRepo{s: s},
		Requirements:  &requirementRepo{s: s},
		Users:         &userRepo{s: s},
		Departments:   &departmentRepo{s: s},
		Roles:         &roleRepo{s: s},
		Activity:      &activityRepo{s: s},
		Notifications: &notificationRepo{s: s},
		Registrations: &registrationRepo{s: s},
		Attachments:   &attachmentRepo{s: s},
	}
}

// ActivityEntries returns a copy of the audit trail, oldest first.
func (s *Store) ActivityEntries() []domain.ActivityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ActivityLogEntry(nil), s.activity...)
}

func newID() string {
	return uuid.NewString()
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func inSet(value string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, candidate := range set {
		if candidate == value {
			return true
		}
	}
	return false
}

func paginate[T any](all []T, req repository.PageRequest) *repository.Page[T] {
	req = req.Normalize()
	page, offset := repository.ResolvePage(req, len(all))
	end := offset + req.Limit
	if end > len(all) {
		end = len(all)
	}
	var items []T
	if offset < len(all) {
		items = append(items, all[offset:end]...)
	}
	return repository.NewPage(items, len(all), req, page)
}

func ptr[T any](v T) *T {
	return &v
}
