package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func principal(c *fiber.Ctx) (*domain.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	return p, nil
}

// pathID returns a uuid path parameter, rejecting malformed values before
// they reach the store.
func pathID(c *fiber.Ctx, name string) (string, error) {
	raw := c.Params(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
	}
	return id.String(), nil
}

func pathInt(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Params(name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
	}
	return v, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

func parseBool(val string) *bool {
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &b
}

// parseTime accepts RFC 3339 timestamps and bare dates. dateOnly reports
// which form matched.
func parseTime(name, val string) (t *time.Time, dateOnly bool, err error) {
	if val == "" {
		return nil, false, nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, val); err == nil {
		return &parsed, false, nil
	}
	if parsed, err := time.Parse(time.DateOnly, val); err == nil {
		return &parsed, true, nil
	}
	return nil, false, apperrors.NewValidationError("invalid "+name, map[string]any{name: val})
}

func splitCSV(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func optionalString(val string) *string {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	return &val
}

func pageRequest(c *fiber.Ctx) repository.PageRequest {
	return repository.PageRequest{Page: parseInt(c.Query("page"), 1), Limit: parseInt(c.Query("limit"), 0)}
}

func parseItemFilter(c *fiber.Ctx) (repository.ItemFilter, error) {
	filter := repository.ItemFilter{
		Statuses:    splitCSV(c.Query("status")),
		Priorities:  splitCSV(c.Query("priority")),
		Types:       splitCSV(c.Query("type")),
		AssignedTo:  optionalString(c.Query("assignedTo")),
		CreatedBy:   optionalString(c.Query("createdBy")),
		Search:      strings.TrimSpace(c.Query("search")),
		PageRequest: pageRequest(c),
	}
	if dept := c.Query("department"); dept != "" {
		id, err := strconv.ParseInt(dept, 10, 64)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid department", map[string]any{"department": dept})
		}
		filter.DepartmentID = &id
	}
	var err error
	if filter.DateFrom, _, err = parseTime("dateFrom", c.Query("dateFrom")); err != nil {
		return filter, err
	}
	to, dateOnly, err := parseTime("dateTo", c.Query("dateTo"))
	if err != nil {
		return filter, err
	}
	if dateOnly {
		// A bare end date covers that whole day.
		end := to.AddDate(0, 0, 1)
		filter.DateBefore = &end
	} else {
		filter.DateTo = to
	}
	return filter, nil
}
