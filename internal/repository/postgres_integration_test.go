package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// setupTestDB starts a Postgres container and applies migrations.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		postgres.WithDatabase("helpdesk_test"),
		postgres.WithUsername("helpdesk"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	if err := persistence.RunMigrations(dsn, zap.NewNop()); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func seedUser(t *testing.T, repos *Repositories, email string, role domain.RoleName) *domain.User {
	t.Helper()
	ctx := context.Background()
	r, err := repos.Roles.GetByName(ctx, role)
	if err != nil {
		t.Fatalf("role %s: %v", role, err)
	}
	user := &domain.User{Email: email, FullName: email, RoleID: r.ID, IsActive: true}
	if err := repos.Users.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestIncidentLifecycleAgainstPostgres(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repos := NewPostgresRepositories(pool)

	dept := &domain.Department{Name: "Operations", ShortName: "OPS", IsActive: true}
	if err := repos.Departments.Create(ctx, dept); err != nil {
		t.Fatalf("create department: %v", err)
	}
	tech := seedUser(t, repos, "tech@example.com", domain.RoleTechnician)

	for _, title := range []string{"Printer down", "Printer jammed", "VPN flaky"} {
		incident := &domain.Incident{
			Title:          title,
			Type:           domain.IncidentTypeHardware,
			Priority:       domain.PriorityHigh,
			Status:         domain.IncidentStatusOpen,
			AffectedAreaID: dept.ID,
			CreatedBy:      tech.ID,
		}
		if err := repos.Incidents.Create(ctx, incident); err != nil {
			t.Fatalf("create incident: %v", err)
		}
	}

	page, err := repos.Incidents.List(ctx, ItemFilter{Search: "PRINTER", PageRequest: PageRequest{Page: 2, Limit: 10}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || page.Page != 1 || len(page.Items) != 2 || page.HasMore {
		t.Fatalf("unexpected page: total=%d page=%d items=%d hasMore=%v", page.Total, page.Page, len(page.Items), page.HasMore)
	}
	first := page.Items[0]
	if first.AffectedAreaName == nil || *first.AffectedAreaName != "Operations" {
		t.Errorf("area name not joined: %v", first.AffectedAreaName)
	}

	got, err := repos.Incidents.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	now := time.Now().UTC()
	closed := string(domain.IncidentStatusClosed)
	err = repos.Incidents.Update(ctx, got.ID, ItemPatch{
		Status:                 &closed,
		CompletedAt:            Some(&now),
		ModifiedBy:             tech.ID,
		ModifiedAt:             now,
		ExpectedLastModifiedAt: &got.LastModifiedAt,
	})
	if err != nil {
		t.Fatalf("conditional update: %v", err)
	}

	stale := got.LastModifiedAt
	title := "late edit"
	err = repos.Incidents.Update(ctx, got.ID, ItemPatch{Title: &title, ModifiedBy: tech.ID, ModifiedAt: time.Now(), ExpectedLastModifiedAt: &stale})
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected Conflict for stale precondition, got %v", err)
	}

	reopened := string(domain.IncidentStatusOpen)
	err = repos.Incidents.Update(ctx, got.ID, ItemPatch{Status: &reopened, ModifiedBy: tech.ID, ModifiedAt: time.Now()})
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected check constraint to reject open with resolved_at, got %v", err)
	}

	resolvedCount, err := repos.Incidents.Count(ctx, domain.IncidentStatusClosed)
	if err != nil || resolvedCount != 1 {
		t.Fatalf("closed count = %d, %v", resolvedCount, err)
	}

	if err := repos.Users.Delete(ctx, tech.ID); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected Conflict deleting referenced user, got %v", err)
	}
	if err := repos.Incidents.Delete(ctx, got.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repos.Incidents.GetByID(ctx, got.ID); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func TestRegistrationApprovalAgainstPostgres(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repos := NewPostgresRepositories(pool)

	dept := &domain.Department{Name: "Finance", IsActive: true}
	if err := repos.Departments.Create(ctx, dept); err != nil {
		t.Fatalf("create department: %v", err)
	}
	admin := seedUser(t, repos, "admin@example.com", domain.RoleAdmin)

	req := &domain.RegistrationRequest{
		Name:          "New Person",
		Email:         "new@example.com",
		PasswordHash:  "$2a$04$hash",
		DepartmentID:  dept.ID,
		RequestedRole: domain.RoleRequester,
		Status:        domain.RegistrationPending,
	}
	if err := repos.Registrations.Create(ctx, req); err != nil {
		t.Fatalf("create request: %v", err)
	}
	pending, err := repos.Registrations.HasPending(ctx, "NEW@example.com")
	if err != nil || !pending {
		t.Fatalf("HasPending = %v, %v", pending, err)
	}

	role, _ := repos.Roles.GetByName(ctx, domain.RoleRequester)
	user := &domain.User{Email: req.Email, FullName: req.Name, PasswordHash: req.PasswordHash, DepartmentID: &dept.ID, RoleID: role.ID, IsActive: true}
	if err := repos.Registrations.Approve(ctx, req.ID, admin.ID, user); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if user.ID == "" {
		t.Fatal("approved user has no id")
	}
	if err := repos.Registrations.Reject(ctx, req.ID, admin.ID); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected Conflict on second review, got %v", err)
	}
}
