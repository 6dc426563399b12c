package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	deps        map[string]Pinger
}

// NewHealthHandler returns a new handler instance. deps maps a dependency
// name to its checker; the in-memory store has none.
func NewHealthHandler(serviceName, version string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, deps: deps}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			depStatus[name] = err.Error()
			ready = false
		} else {
			depStatus[name] = "ok"
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"type":         "about:blank",
		"title":        "DependencyUnavailable",
		"detail":       "one or more dependencies unavailable",
		"dependencies": depStatus,
	})
}
