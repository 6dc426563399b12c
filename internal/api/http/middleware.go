package http

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/ids"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const problemContentType = "application/problem+json"

// RegisterMiddlewares attaches global middlewares. The request logger is
// outermost so it sees the status written by the error handler.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(requestid.New(requestid.Config{Generator: ids.New}))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = writeProblem(c, logger, metrics, err)
			}
		}()
		return c.Next()
	}
}

// ErrorHandler renders errors that escape the middleware chain, such as
// unmatched routes and body limit violations.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeProblem(c, logger, metrics, err)
	}
}

func writeProblem(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) error {
	domainErr := toDomainError(err)
	metrics.RecordError(c.Route().Path, c.Method(), string(domainErr.Kind))
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		fields := []zap.Field{zap.Error(err), zap.String("method", c.Method()), zap.String("path", c.Path())}
		if rid, ok := c.Locals("requestid").(string); ok {
			fields = append(fields, zap.String("request_id", rid))
		}
		logger.Error("request failed", fields...)
	}
	body := dto.Problem{
		Type:   "about:blank",
		Title:  string(domainErr.Kind),
		Detail: domainErr.Message,
		Extra:  domainErr.Details,
	}
	c.Status(domainErr.HTTPStatus)
	if jsonErr := c.JSON(body); jsonErr != nil {
		return jsonErr
	}
	c.Set(fiber.HeaderContentType, problemContentType)
	return nil
}

// toDomainError also maps fiber's own errors, which carry an HTTP status.
func toDomainError(err error) *apperrors.DomainError {
	if fe, ok := err.(*fiber.Error); ok {
		switch fe.Code {
		case fiber.StatusNotFound:
			return apperrors.NewDomainError(apperrors.KindNotFound, fe.Message, fe.Code, nil)
		case fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge, fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			return apperrors.NewDomainError(apperrors.KindValidation, fe.Message, fe.Code, nil)
		case fiber.StatusTooManyRequests:
			return apperrors.NewDomainError(apperrors.KindForbidden, fe.Message, fe.Code, nil)
		}
	}
	return apperrors.ToDomainError(err)
}

// ipLimiter throttles unauthenticated endpoints per client address.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perSecond, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		limiters: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		ttl:      10 * time.Minute,
		now:      time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.limiters, key)
		}
	}
	v, ok := l.limiters[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Handle rejects requests over the per-IP budget with 429.
func (l *ipLimiter) Handle(c *fiber.Ctx) error {
	if l.limit <= 0 {
		return c.Next()
	}
	if !l.allow(c.IP()) {
		c.Set(fiber.HeaderRetryAfter, "1")
		return fiber.NewError(fiber.StatusTooManyRequests, "too many requests")
	}
	return c.Next()
}
