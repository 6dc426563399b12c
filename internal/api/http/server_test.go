package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/storage"
)

type testServer struct {
	app    *fiber.App
	dept   *domain.Department
	tokens map[domain.RoleName]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	repos := store.Repositories()

	dept := &domain.Department{Name: "Operations", ShortName: "OPS", IsActive: true}
	if err := repos.Departments.Create(ctx, dept); err != nil {
		t.Fatal(err)
	}

	authCfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}
	tokens, err := auth.NewTokenManager(authCfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ts := &testServer{dept: dept, tokens: map[domain.RoleName]string{}}
	for i, role := range []domain.RoleName{domain.RoleAdmin, domain.RoleTechnician, domain.RoleRequester} {
		user := &domain.User{Email: fmt.Sprintf("%s@example.com", role), FullName: string(role), RoleID: int64(i + 1), IsActive: true}
		if err := repos.Users.Create(ctx, user); err != nil {
			t.Fatal(err)
		}
		token, _, err := tokens.GenerateToken(user)
		if err != nil {
			t.Fatal(err)
		}
		ts.tokens[role] = token
	}

	outbox := events.NewOutbox(events.Options{Workers: 1, QueueSize: 64}, zap.NewNop(), nil)
	t.Cleanup(func() { _ = outbox.Shutdown(context.Background()) })
	files, err := storage.NewFileStore(t.TempDir(), 1<<10)
	if err != nil {
		t.Fatal(err)
	}

	deps := service.ItemDependencies{Repos: repos, Dispatcher: outbox}
	attachments := service.NewAttachmentService(repos, files, outbox, zap.NewNop())
	activity := service.NewActivityService(repos.Activity)
	routes := RouteConfig{
		Health:        handlers.NewHealthHandler("helpdesk-service", "test", nil),
		Incidents:     handlers.NewIncidentsHandler(service.NewIncidentService(deps), attachments, activity),
		Requirements:  handlers.NewRequirementsHandler(service.NewRequirementService(deps), attachments, activity),
		Users:         handlers.NewUsersHandler(service.NewUserService(repos)),
		Catalog:       handlers.NewCatalogHandler(service.NewCatalogService(repos)),
		Notifications: handlers.NewNotificationsHandler(service.NewNotificationService(repos.Notifications)),
		Auth:          handlers.NewAuthHandler(service.NewAuthService(authCfg, repos, tokens, zap.NewNop())),
		Files:         handlers.NewFilesHandler(attachments, activity),
		Resolver:      auth.NewResolver(tokens, repos.Users),
	}
	ts.app = NewServer(ServerConfig{AppName: "test", RequestTimeout: 5 * time.Second}, routes, zap.NewNop(), observability.NewMetrics())
	return ts
}

func (ts *testServer) do(t *testing.T, role domain.RoleName, method, path string, body any) (int, map[string]any, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+ts.tokens[role])
	}
	resp, err := ts.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, out, resp.Header.Get("Content-Type")
}

func TestIncidentStatusScenario(t *testing.T) {
	ts := newTestServer(t)

	status, created, _ := ts.do(t, domain.RoleTechnician, "POST", "/incidents", map[string]any{
		"title": "Printer down", "departmentId": ts.dept.ID, "priority": "high",
	})
	if status != fiber.StatusCreated || created["status"] != "open" || created["id"] == "" {
		t.Fatalf("create = %d %v", status, created)
	}
	id := created["id"].(string)

	status, body, contentType := ts.do(t, domain.RoleTechnician, "POST", "/incidents/"+id+"/status", map[string]any{"status": "closed"})
	if status != fiber.StatusForbidden || body["title"] != "Forbidden" || body["type"] != "about:blank" {
		t.Fatalf("technician status change = %d %v", status, body)
	}
	if contentType != problemContentType {
		t.Fatalf("content type = %q", contentType)
	}

	status, body, _ = ts.do(t, domain.RoleAdmin, "POST", "/incidents/"+id+"/status", map[string]any{"status": "closed"})
	if status != fiber.StatusOK || body["ok"] != true || body["id"] != id || body["status"] != "closed" {
		t.Fatalf("admin status change = %d %v", status, body)
	}

	status, body, _ = ts.do(t, domain.RoleRequester, "GET", "/incidents/"+id, nil)
	if status != fiber.StatusOK || body["resolvedAt"] == nil || body["status"] != "closed" {
		t.Fatalf("get = %d %v", status, body)
	}
	if body["affectedAreaName"] != "Operations" {
		t.Errorf("affectedAreaName = %v", body["affectedAreaName"])
	}
}

func TestSearchPastLastPage(t *testing.T) {
	ts := newTestServer(t)
	for _, title := range []string{"Printer jam", "Old printer", "PRINTER toner", "Scanner offline"} {
		if status, body, _ := ts.do(t, domain.RoleTechnician, "POST", "/incidents", map[string]any{"title": title, "departmentId": ts.dept.ID}); status != fiber.StatusCreated {
			t.Fatalf("create %q = %d %v", title, status, body)
		}
	}

	status, body, _ := ts.do(t, domain.RoleRequester, "GET", "/incidents?search=printer&page=2&limit=10", nil)
	if status != fiber.StatusOK {
		t.Fatalf("list = %d %v", status, body)
	}
	items, _ := body["items"].([]any)
	if len(items) != 3 || body["total"] != float64(3) || body["page"] != float64(1) || body["limit"] != float64(10) || body["hasMore"] != false {
		t.Fatalf("page = %v", body)
	}
}

func TestDateRangeIncludesEndDay(t *testing.T) {
	ts := newTestServer(t)
	status, created, _ := ts.do(t, domain.RoleTechnician, "POST", "/incidents", map[string]any{"title": "Badge reader", "departmentId": ts.dept.ID})
	if status != fiber.StatusCreated {
		t.Fatalf("create = %d %v", status, created)
	}
	_, got, _ := ts.do(t, domain.RoleTechnician, "GET", "/incidents/"+created["id"].(string), nil)
	createdAt, err := time.Parse(time.RFC3339Nano, got["createdAt"].(string))
	if err != nil {
		t.Fatalf("createdAt %v: %v", got["createdAt"], err)
	}
	day := createdAt.UTC().Format(time.DateOnly)
	next := createdAt.UTC().AddDate(0, 0, 1).Format(time.DateOnly)

	cases := []struct {
		query string
		total float64
	}{
		{"dateFrom=" + day + "&dateTo=" + day, 1},
		{"dateTo=" + day, 1},
		{"dateFrom=" + next, 0},
		{"dateTo=" + createdAt.Add(-time.Second).UTC().Format(time.RFC3339Nano), 0},
	}
	for _, tc := range cases {
		status, body, _ := ts.do(t, domain.RoleRequester, "GET", "/incidents?"+tc.query, nil)
		if status != fiber.StatusOK || body["total"] != tc.total {
			t.Errorf("%s = %d total %v, want %v", tc.query, status, body["total"], tc.total)
		}
	}

	status, body, _ := ts.do(t, domain.RoleRequester, "GET", "/incidents?dateTo=yesterday", nil)
	if status != fiber.StatusBadRequest || body["title"] != "ValidationError" {
		t.Fatalf("bad dateTo = %d %v", status, body)
	}
}

func TestAuthenticationAndValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	status, body, _ := ts.do(t, "", "GET", "/incidents", nil)
	if status != fiber.StatusUnauthorized || body["title"] != "Unauthenticated" {
		t.Fatalf("anonymous = %d %v", status, body)
	}

	status, body, _ = ts.do(t, domain.RoleAdmin, "GET", "/incidents/not-a-uuid", nil)
	if status != fiber.StatusBadRequest || body["title"] != "ValidationError" {
		t.Fatalf("bad id = %d %v", status, body)
	}

	status, body, _ = ts.do(t, domain.RoleAdmin, "GET", "/incidents/7b0d1c52-4a41-4d52-9a43-0a8f6f1f0a11", nil)
	if status != fiber.StatusNotFound || body["title"] != "NotFound" {
		t.Fatalf("missing = %d %v", status, body)
	}

	status, body, _ = ts.do(t, domain.RoleRequester, "POST", "/requirements", map[string]any{"title": "Laptop", "departmentId": ts.dept.ID})
	if status != fiber.StatusForbidden {
		t.Fatalf("requester create = %d %v", status, body)
	}

	status, body, _ = ts.do(t, domain.RoleTechnician, "POST", "/requirements", map[string]any{"title": "", "departmentId": ts.dept.ID})
	if status != fiber.StatusBadRequest || body["title"] != "ValidationError" {
		t.Fatalf("empty title = %d %v", status, body)
	}
}

func TestPermissionsAndSummary(t *testing.T) {
	ts := newTestServer(t)

	status, body, _ := ts.do(t, domain.RoleTechnician, "GET", "/requirements/permissions", nil)
	if status != fiber.StatusOK || body["canEditStatus"] != false || body["canEditArea"] != true || body["isReadOnly"] != false {
		t.Fatalf("permissions = %d %v", status, body)
	}

	_, created, _ := ts.do(t, domain.RoleTechnician, "POST", "/requirements", map[string]any{"title": "New laptop", "departmentId": ts.dept.ID, "type": "hardware"})
	id := created["id"].(string)
	if created["status"] != "pending" {
		t.Fatalf("created = %v", created)
	}
	if status, body, _ := ts.do(t, domain.RoleAdmin, "POST", "/requirements/"+id+"/status", map[string]any{"status": "in_progress"}); status != fiber.StatusOK {
		t.Fatalf("status = %d %v", status, body)
	}

	status, body, _ = ts.do(t, domain.RoleTechnician, "GET", "/requirements/"+id+"/permissions", nil)
	if status != fiber.StatusOK || body["isReadOnly"] != true || body["canEditContent"] != false {
		t.Fatalf("item permissions = %d %v", status, body)
	}
	status, body, _ = ts.do(t, domain.RoleTechnician, "PATCH", "/requirements/"+id, map[string]any{"title": "Renamed"})
	if status != fiber.StatusForbidden {
		t.Fatalf("read-only patch = %d %v", status, body)
	}

	status, body, _ = ts.do(t, domain.RoleAdmin, "GET", "/requirements/metrics/summary", nil)
	if status != fiber.StatusOK || body["totalRequirements"] != float64(1) || body["inProgressRequirements"] != float64(1) {
		t.Fatalf("summary = %d %v", status, body)
	}
}

func TestUnknownRouteIsProblem(t *testing.T) {
	ts := newTestServer(t)
	status, body, contentType := ts.do(t, "", "GET", "/nope", nil)
	if status != fiber.StatusNotFound || body["type"] != "about:blank" || contentType != problemContentType {
		t.Fatalf("unknown route = %d %v %q", status, body, contentType)
	}
}

func TestIPLimiter(t *testing.T) {
	l := newIPLimiter(1, 2)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	if !l.allow("10.0.0.1") || !l.allow("10.0.0.1") {
		t.Fatal("burst should be admitted")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("third request within the same instant should be limited")
	}
	if !l.allow("10.0.0.2") {
		t.Fatal("other clients have their own budget")
	}
	now = now.Add(time.Second)
	if !l.allow("10.0.0.1") {
		t.Fatal("token should refill after a second")
	}
}
