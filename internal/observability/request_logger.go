package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request and feeds request metrics.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		route := c.Route().Path
		metrics.RecordRequest(route, c.Method(), status, duration)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", duration),
			zap.String("ip", c.IP()),
		}
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return err
	}
}
