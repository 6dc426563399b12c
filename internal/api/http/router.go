package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Incidents     *handlers.IncidentsHandler
	Requirements  *handlers.RequirementsHandler
	Users         *handlers.UsersHandler
	Catalog       *handlers.CatalogHandler
	Notifications *handlers.NotificationsHandler
	Auth          *handlers.AuthHandler
	Files         *handlers.FilesHandler
	Resolver      *auth.Resolver
	Metrics       *observability.Metrics
	RateLimit     config.RateLimitConfig
}

// itemRoutes is the route set shared by /incidents and /requirements.
type itemRoutes interface {
	List(*fiber.Ctx) error
	Get(*fiber.Ctx) error
	Summary(*fiber.Ctx) error
	Permissions(*fiber.Ctx) error
	Create(*fiber.Ctx) error
	Update(*fiber.Ctx) error
	ChangeStatus(*fiber.Ctx) error
	Delete(*fiber.Ctx) error
	Upload(*fiber.Ctx) error
	Attachments(*fiber.Ctx) error
	Activity(*fiber.Ctx) error
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	limiter := newIPLimiter(cfg.RateLimit.PublicPerSecond, cfg.RateLimit.PublicBurst)
	authGroup := app.Group("/auth", limiter.Handle)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Get("/register/availability", cfg.Auth.Availability)

	app.Get("/departments", limiter.Handle, cfg.Catalog.Departments)

	protected := cfg.Resolver.Handle
	registerItemRoutes(app.Group("/incidents", protected), cfg.Incidents)
	registerItemRoutes(app.Group("/requirements", protected), cfg.Requirements)

	users := app.Group("/users", protected)
	users.Get("/me", cfg.Users.Me)
	users.Get("/", auth.RequirePrivileged(), cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", auth.RequireAdmin(), cfg.Users.Update)
	users.Delete("/:id", auth.RequireAdmin(), cfg.Users.Delete)

	departments := app.Group("/departments", protected, auth.RequireAdmin())
	departments.Post("/", cfg.Catalog.CreateDepartment)
	departments.Patch("/:id", cfg.Catalog.UpdateDepartment)

	app.Get("/roles", protected, cfg.Catalog.Roles)

	notifications := app.Group("/notifications", protected)
	notifications.Get("/", cfg.Notifications.List)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	registrations := app.Group("/registration-requests", protected, auth.RequireAdmin())
	registrations.Get("/", cfg.Auth.ListRegistrations)
	registrations.Post("/:id/approve", cfg.Auth.Approve)
	registrations.Post("/:id/reject", cfg.Auth.Reject)

	app.Get("/attachments/:id", protected, cfg.Files.Download)
	app.Get("/activity", protected, auth.RequirePrivileged(), cfg.Files.Activity)
}

func registerItemRoutes(group fiber.Router, h itemRoutes) {
	group.Get("/", h.List)
	group.Get("/metrics/summary", h.Summary)
	group.Get("/permissions", h.Permissions)
	group.Post("/", h.Create)
	group.Get("/:id", h.Get)
	group.Get("/:id/permissions", h.Permissions)
	group.Patch("/:id", h.Update)
	group.Post("/:id/status", h.ChangeStatus)
	group.Delete("/:id", h.Delete)
	group.Post("/:id/attachments", h.Upload)
	group.Get("/:id/attachments", h.Attachments)
	group.Get("/:id/activity", h.Activity)
}
