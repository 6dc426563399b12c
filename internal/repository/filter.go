package repository

import (
	"fmt"
	"strings"
	"time"
)

// ItemFilter narrows incident and requirement listings. Empty fields do not
// constrain the result.
type ItemFilter struct {
	Statuses     []string
	Priorities   []string
	Types        []string
	AssignedTo   *string
	CreatedBy    *string
	DepartmentID *int64
	DateFrom     *time.Time
	DateTo       *time.Time
	DateBefore   *time.Time // exclusive
	Search       string
	PageRequest
}

// Optional distinguishes "leave unchanged" from "set", where the value set may
// be nil to clear a nullable column.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional that sets v.
func Some[T any](v *T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// ItemPatch lists the columns an update writes. ModifiedBy and ModifiedAt are
// always stamped. A non-nil ExpectedLastModifiedAt makes the write conditional.
type ItemPatch struct {
	Title        *string
	Description  *string
	Type         *string
	Priority     *string
	AssignedTo   Optional[string]
	DepartmentID *int64
	Status       *string
	CompletedAt  Optional[time.Time]

	ModifiedBy             string
	ModifiedAt             time.Time
	ExpectedLastModifiedAt *time.Time
}

// whereBuilder accumulates positional SQL predicates.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

// add appends a predicate; each %s in format is replaced by the placeholder of v.
func (w *whereBuilder) add(format string, v any) {
	placeholder := w.arg(v)
	w.clauses = append(w.clauses, strings.ReplaceAll(format, "%s", placeholder))
}

func (w *whereBuilder) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = w.arg(v)
	}
	w.clauses = append(w.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// likePattern builds a case-insensitive substring pattern with LIKE
// metacharacters escaped.
func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(term)) + "%"
}

func buildItemWhere(f ItemFilter, schema itemSchema) whereBuilder {
	var w whereBuilder
	w.in("t.status", f.Statuses)
	w.in("t.priority", f.Priorities)
	w.in("t.type", f.Types)
	if f.AssignedTo != nil {
		w.add("t.assigned_to = %s", *f.AssignedTo)
	}
	if f.CreatedBy != nil {
		w.add("t.created_by = %s", *f.CreatedBy)
	}
	if f.DepartmentID != nil {
		w.add("t."+schema.areaColumn+" = %s", *f.DepartmentID)
	}
	if f.DateFrom != nil {
		w.add("t.created_at >= %s", *f.DateFrom)
	}
	if f.DateTo != nil {
		w.add("t.created_at <= %s", *f.DateTo)
	}
	if f.DateBefore != nil {
		w.add("t.created_at < %s", *f.DateBefore)
	}
	if strings.TrimSpace(f.Search) != "" {
		w.add("(t.title ILIKE %s OR t.description ILIKE %s)", likePattern(f.Search))
	}
	return w
}
