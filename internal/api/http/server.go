package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// ServerConfig sizes the Fiber app.
type ServerConfig struct {
	AppName        string
	RequestTimeout time.Duration
	MaxUploadBytes int64
	CORSOrigins    string
}

// NewServer builds the Fiber app with middlewares and routes registered.
func NewServer(cfg ServerConfig, routes RouteConfig, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	bodyLimit := 4 << 20
	if limit := int(cfg.MaxUploadBytes) + 1<<20; limit > bodyLimit {
		bodyLimit = limit
	}
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger, metrics),
	})
	if cfg.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Authorization, Content-Type",
			AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		}))
	}
	RegisterMiddlewares(app, logger, metrics, cfg.RequestTimeout)
	routes.Metrics = metrics
	RegisterRoutes(app, routes)
	return app
}
