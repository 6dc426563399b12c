package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Dispatch(e events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

func (d *recordingDispatcher) Subscribe(events.EventType, string, events.Handler) {}

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// stepClock advances one second per reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	store      *memstore.Store
	repos      *repository.Repositories
	dispatcher *recordingDispatcher
	clock      *stepClock
	dept       *domain.Department
	admin      *domain.Principal
	tech       *domain.Principal
	requester  *domain.Principal

	incidents    *IncidentService
	requirements *RequirementService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      memstore.New(),
		dispatcher: &recordingDispatcher{},
		clock:      &stepClock{t: time.Now().UTC().Truncate(time.Microsecond)},
	}
	f.repos = f.store.Repositories()

	ctx := context.Background()
	f.dept = &domain.Department{Name: "Facilities", ShortName: "FAC", IsActive: true}
	if err := f.repos.Departments.Create(ctx, f.dept); err != nil {
		t.Fatalf("create department: %v", err)
	}
	f.admin = f.addUser(t, "admin@example.com", "Ada Admin", 1)
	f.tech = f.addUser(t, "tech@example.com", "Theo Tech", 2)
	f.requester = f.addUser(t, "req@example.com", "", 3)

	deps := ItemDependencies{Repos: f.repos, Dispatcher: f.dispatcher, Now: f.clock.Now}
	f.incidents = NewIncidentService(deps)
	f.requirements = NewRequirementService(deps)
	return f
}

func (f *fixture) addUser(t *testing.T, email, name string, roleID int64) *domain.Principal {
	t.Helper()
	user := &domain.User{Email: email, FullName: name, RoleID: roleID, IsActive: true}
	if err := f.repos.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return domain.PrincipalFromUser(user)
}

func (f *fixture) openIncident(t *testing.T, title string) *domain.Incident {
	t.Helper()
	incident, err := f.incidents.Create(context.Background(), f.tech, ItemInput{
		Title:        title,
		DepartmentID: f.dept.ID,
		Priority:     "high",
	})
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	return incident
}

func strPtr(s string) *string { return &s }
