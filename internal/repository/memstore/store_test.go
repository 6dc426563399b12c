package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func seed(t *testing.T) (*repository.Repositories, *domain.Department, *domain.User) {
	t.Helper()
	ctx := context.Background()
	repos := New().Repositories()

	dept := &domain.Department{Name: "Operations", ShortName: "OPS", IsActive: true}
	if err := repos.Departments.Create(ctx, dept); err != nil {
		t.Fatalf("create department: %v", err)
	}
	tech := &domain.User{Email: "tech@example.com", FullName: "Tess Tech", RoleID: 2, IsActive: true}
	if err := repos.Users.Create(ctx, tech); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return repos, dept, tech
}

func TestIncidentCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repos, dept, tech := seed(t)

	incident := &domain.Incident{
		Title:          "Printer jam",
		Description:    "Tray 2",
		Type:           domain.IncidentTypeHardware,
		Priority:       domain.PriorityHigh,
		Status:         domain.IncidentStatusOpen,
		AffectedAreaID: dept.ID,
		AssignedTo:     &tech.ID,
		CreatedBy:      tech.ID,
	}
	if err := repos.Incidents.Create(ctx, incident); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repos.Incidents.GetByID(ctx, incident.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Printer jam" || got.Status != domain.IncidentStatusOpen || got.ResolvedAt != nil {
		t.Fatalf("unexpected incident %+v", got)
	}
	if got.AffectedAreaName == nil || *got.AffectedAreaName != "Operations" {
		t.Errorf("area name = %v", got.AffectedAreaName)
	}
	if got.AssigneeName == nil || *got.AssigneeName != "Tess Tech" {
		t.Errorf("assignee name = %v", got.AssigneeName)
	}
	if got.LastModifiedBy == nil || *got.LastModifiedBy != tech.ID {
		t.Errorf("last modified by = %v", got.LastModifiedBy)
	}
}

func TestItemUpdateConstraints(t *testing.T) {
	ctx := context.Background()
	repos, dept, tech := seed(t)

	req := &domain.Requirement{
		Title:        "New laptop",
		Type:         domain.RequirementTypeHardware,
		Priority:     domain.PriorityMedium,
		Status:       domain.RequirementStatusPending,
		DepartmentID: dept.ID,
		CreatedBy:    tech.ID,
	}
	if err := repos.Requirements.Create(ctx, req); err != nil {
		t.Fatalf("create: %v", err)
	}

	delivered := string(domain.RequirementStatusDelivered)
	err := repos.Requirements.Update(ctx, req.ID, repository.ItemPatch{
		Status:     &delivered,
		ModifiedBy: tech.ID,
		ModifiedAt: time.Now(),
	})
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("terminal status without timestamp: got %v", err)
	}

	stale := req.LastModifiedAt.Add(-time.Second)
	title := "Newer laptop"
	err = repos.Requirements.Update(ctx, req.ID, repository.ItemPatch{
		Title:                  &title,
		ModifiedBy:             tech.ID,
		ModifiedAt:             time.Now(),
		ExpectedLastModifiedAt: &stale,
	})
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("stale precondition: got %v", err)
	}

	now := time.Now()
	err = repos.Requirements.Update(ctx, req.ID, repository.ItemPatch{
		Status:                 &delivered,
		CompletedAt:            repository.Some(&now),
		ModifiedBy:             tech.ID,
		ModifiedAt:             now,
		ExpectedLastModifiedAt: &req.LastModifiedAt,
	})
	if err != nil {
		t.Fatalf("conditional update: %v", err)
	}
	got, _ := repos.Requirements.GetByID(ctx, req.ID)
	if got.DeliveredAt == nil || got.Status != domain.RequirementStatusDelivered {
		t.Fatalf("unexpected requirement %+v", got)
	}

	missing := int64(999)
	err = repos.Requirements.Update(ctx, req.ID, repository.ItemPatch{DepartmentID: &missing, ModifiedBy: tech.ID, ModifiedAt: now})
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("missing department: got %v", err)
	}

	if err := repos.Requirements.Update(ctx, "nope", repository.ItemPatch{ModifiedBy: tech.ID}); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("missing row: got %v", err)
	}
}

func TestListClampsPageAndFilters(t *testing.T) {
	ctx := context.Background()
	repos, dept, tech := seed(t)

	for i := 0; i < 25; i++ {
		priority := domain.PriorityLow
		if i%5 == 0 {
			priority = domain.PriorityUrgent
		}
		err := repos.Incidents.Create(ctx, &domain.Incident{
			Title:          fmt.Sprintf("VPN outage %d", i),
			Type:           domain.IncidentTypeNetwork,
			Priority:       priority,
			Status:         domain.IncidentStatusOpen,
			AffectedAreaID: dept.ID,
			CreatedBy:      tech.ID,
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	page, err := repos.Incidents.List(ctx, repository.ItemFilter{PageRequest: repository.PageRequest{Page: 99999, Limit: 10}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Page != 3 || len(page.Items) != 5 || page.HasMore || page.Total != 25 {
		t.Fatalf("page = %d items = %d hasMore = %v total = %d", page.Page, len(page.Items), page.HasMore, page.Total)
	}

	urgent, _ := repos.Incidents.List(ctx, repository.ItemFilter{Priorities: []string{"urgent"}, Search: "vpn"})
	if urgent.Total != 5 {
		t.Fatalf("urgent total = %d", urgent.Total)
	}

	empty, _ := repos.Incidents.List(ctx, repository.ItemFilter{Search: "nothing matches", PageRequest: repository.PageRequest{Page: 4}})
	if empty.Page != 1 || empty.Items == nil || len(empty.Items) != 0 {
		t.Fatalf("empty page = %+v", empty)
	}
}

func TestUserDeleteIsRestrictedByReferences(t *testing.T) {
	ctx := context.Background()
	repos, dept, tech := seed(t)

	if err := repos.Users.Create(ctx, &domain.User{Email: "TECH@example.com", RoleID: 3}); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("duplicate email: got %v", err)
	}

	incident := &domain.Incident{Title: "x", Type: domain.IncidentTypeOther, Priority: domain.PriorityLow, Status: domain.IncidentStatusOpen, AffectedAreaID: dept.ID, CreatedBy: tech.ID}
	if err := repos.Incidents.Create(ctx, incident); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repos.Users.Delete(ctx, tech.ID); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("delete referenced user: got %v", err)
	}

	itemID := incident.ID
	if err := repos.Attachments.Create(ctx, &domain.Attachment{IncidentID: &itemID, FileName: "log.txt", UploadedBy: tech.ID}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := repos.Incidents.Delete(ctx, incident.ID); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("delete item with attachment: got %v", err)
	}
}

func TestRegistrationReview(t *testing.T) {
	ctx := context.Background()
	repos, dept, tech := seed(t)

	req := &domain.RegistrationRequest{Name: "Rae", Email: "rae@example.com", PasswordHash: "hash", DepartmentID: dept.ID, RequestedRole: domain.RoleRequester, Status: domain.RegistrationPending}
	if err := repos.Registrations.Create(ctx, req); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := *req
	if err := repos.Registrations.Create(ctx, &dup); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("duplicate pending: got %v", err)
	}
	if pending, _ := repos.Registrations.HasPending(ctx, "RAE@example.com"); !pending {
		t.Fatal("expected pending request")
	}

	user := &domain.User{Email: req.Email, FullName: req.Name, PasswordHash: req.PasswordHash, RoleID: 3, DepartmentID: &dept.ID, IsActive: true}
	if err := repos.Registrations.Approve(ctx, req.ID, tech.ID, user); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := repos.Registrations.Reject(ctx, req.ID, tech.ID); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("second review: got %v", err)
	}
	got, _ := repos.Registrations.GetByID(ctx, req.ID)
	if got.Status != domain.RegistrationApproved || got.ReviewedBy == nil || *got.ReviewedBy != tech.ID {
		t.Fatalf("unexpected request %+v", got)
	}
	if _, err := repos.Users.GetByEmail(ctx, "rae@example.com"); err != nil {
		t.Fatalf("approved user missing: %v", err)
	}
}

func TestNotificationsAreScopedToRecipient(t *testing.T) {
	ctx := context.Background()
	repos, _, tech := seed(t)

	n := &domain.Notification{UserID: tech.ID, Title: "Assigned", Type: domain.NotificationAssignment}
	if err := repos.Notifications.Create(ctx, n); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repos.Notifications.MarkRead(ctx, n.ID, "someone-else"); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("foreign mark read: got %v", err)
	}
	if unread, _ := repos.Notifications.CountUnread(ctx, tech.ID); unread != 1 {
		t.Fatalf("unread = %d", unread)
	}
	if updated, _ := repos.Notifications.MarkAllRead(ctx, tech.ID); updated != 1 {
		t.Fatalf("mark all read updated %d", updated)
	}
	page, _ := repos.Notifications.ListByUser(ctx, tech.ID, true, repository.PageRequest{})
	if page.Total != 0 {
		t.Fatalf("unread after mark all = %d", page.Total)
	}
}

func TestActivityNewestFirst(t *testing.T) {
	ctx := context.Background()
	repos, _, tech := seed(t)

	for i := 0; i < 3; i++ {
		entry := &domain.ActivityLogEntry{Type: domain.KindIncident, Action: domain.ActionUpdated, Title: fmt.Sprint(i), UserID: tech.ID, ItemID: "item-1"}
		if err := repos.Activity.Append(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	entries, _ := repos.Activity.ListByItem(ctx, "item-1", 2)
	if len(entries) != 2 || entries[0].Title != "2" {
		t.Fatalf("entries = %+v", entries)
	}
}
