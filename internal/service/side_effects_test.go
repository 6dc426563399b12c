package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages map[realtime.Channel][]realtime.Message
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, channel realtime.Channel, msg realtime.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.messages == nil {
		p.messages = map[realtime.Channel][]realtime.Message{}
	}
	p.messages[channel] = append(p.messages[channel], msg)
	return nil
}

func runThroughOutbox(t *testing.T, f *fixture, publisher realtime.Publisher, fn func(ItemDependencies)) {
	t.Helper()
	outbox := events.NewOutbox(events.Options{Workers: 2, QueueSize: 32, HandlerTimeout: time.Second}, zap.NewNop(), nil)
	NewSideEffects(f.repos, publisher, zap.NewNop()).RegisterHandlers(outbox)
	outbox.Start()
	fn(ItemDependencies{Repos: f.repos, Dispatcher: outbox, Now: f.clock.Now})
	if err := outbox.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSideEffectsAfterAssignment(t *testing.T) {
	f := newFixture(t)
	publisher := &fakePublisher{}
	var incidentID string

	runThroughOutbox(t, f, publisher, func(deps ItemDependencies) {
		svc := NewIncidentService(deps)
		incident, err := svc.Create(context.Background(), f.admin, ItemInput{
			Title:        "Server room hot",
			DepartmentID: f.dept.ID,
			AssignedTo:   &f.tech.ID,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		incidentID = incident.ID
	})

	entries := f.store.ActivityEntries()
	if len(entries) != 2 {
		t.Fatalf("activity entries = %+v", entries)
	}
	for _, e := range entries {
		if e.ItemID != incidentID || e.UserID != f.admin.ID || e.Type != domain.KindIncident {
			t.Errorf("entry = %+v", e)
		}
		if !strings.Contains(e.Description, "Ada Admin (admin@example.com, admin)") {
			t.Errorf("description = %q", e.Description)
		}
	}

	inbox, err := f.repos.Notifications.ListByUser(context.Background(), f.tech.ID, true, repository.PageRequest{})
	if err != nil || inbox.Total != 1 {
		t.Fatalf("tech inbox = %+v, %v", inbox, err)
	}
	n := inbox.Items[0]
	if n.ItemID == nil || *n.ItemID != incidentID || n.Type != domain.NotificationAssignment {
		t.Fatalf("notification = %+v", n)
	}

	if got := publisher.messages[realtime.ChannelIncidents]; len(got) != 2 || got[0].EntityID != incidentID {
		t.Fatalf("incident broadcasts = %+v", got)
	}
	notices := publisher.messages[realtime.ChannelNotifications]
	if len(notices) != 1 || notices[0].RecipientID != f.tech.ID {
		t.Fatalf("notification broadcasts = %+v", notices)
	}
}

func TestSelfAssignmentIsNotNotified(t *testing.T) {
	f := newFixture(t)
	runThroughOutbox(t, f, &fakePublisher{}, func(deps ItemDependencies) {
		if _, err := NewIncidentService(deps).Create(context.Background(), f.tech, ItemInput{
			Title: "Mine", DepartmentID: f.dept.ID, AssignedTo: &f.tech.ID,
		}); err != nil {
			t.Fatal(err)
		}
	})
	if unread, _ := f.repos.Notifications.CountUnread(context.Background(), f.tech.ID); unread != 0 {
		t.Fatalf("unread = %d", unread)
	}
}

func TestBroadcastFailureDoesNotAffectMutation(t *testing.T) {
	f := newFixture(t)
	publisher := &fakePublisher{err: errors.New("redis unavailable")}
	var created *domain.Requirement

	runThroughOutbox(t, f, publisher, func(deps ItemDependencies) {
		var err error
		created, err = NewRequirementService(deps).Create(context.Background(), f.tech, ItemInput{Title: "Desk", DepartmentID: f.dept.ID})
		if err != nil {
			t.Fatalf("create must succeed when broadcast fails: %v", err)
		}
	})

	if _, err := f.repos.Requirements.GetByID(context.Background(), created.ID); err != nil {
		t.Fatalf("requirement missing: %v", err)
	}
	if len(f.store.ActivityEntries()) != 1 {
		t.Fatal("activity log should be written despite broadcast failure")
	}
}

func TestChangeSummary(t *testing.T) {
	tests := []struct {
		event events.Event
		want  string
	}{
		{events.Event{Type: events.EventItemCreated, Kind: domain.KindRequirement}, "Requirement created"},
		{events.Event{Type: events.EventItemDeleted, Kind: domain.KindIncident}, "Incident deleted"},
		{events.Event{Type: events.EventItemStatusChanged, Payload: events.ItemStatusChangedPayload{OldStatus: "open", NewStatus: "closed"}}, "Status changed from open to closed"},
		{events.Event{Type: events.EventItemUpdated, Payload: events.ItemUpdatedPayload{Fields: []string{"title", "priority"}}}, "Updated title, priority"},
		{events.Event{Type: events.EventItemAssigned, Kind: domain.KindIncident, Payload: events.ItemAssignedPayload{PreviousAssignee: strPtr("a"), Assignee: "b"}}, "Incident reassigned"},
		{events.Event{Type: events.EventAttachmentAdded, Payload: events.AttachmentAddedPayload{FileName: "log.txt"}}, "Attachment log.txt added"},
	}
	for _, tt := range tests {
		if got := changeSummary(tt.event); got != tt.want {
			t.Errorf("changeSummary(%s) = %q, want %q", tt.event.Type, got, tt.want)
		}
	}
}
