package repository

import (
	"strings"
	"testing"
	"time"
)

func TestBuildItemWhere(t *testing.T) {
	dept := int64(3)
	assignee := "user-2"
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := buildItemWhere(ItemFilter{
		Statuses:     []string{"open", "in_progress"},
		Priorities:   []string{"high"},
		AssignedTo:   &assignee,
		DepartmentID: &dept,
		DateFrom:     &from,
		Search:       "printer",
	}, incidentSchema)

	sql := w.sql()
	for _, fragment := range []string{
		"t.status IN ($1,$2)",
		"t.priority IN ($3)",
		"t.assigned_to = $4",
		"t.affected_area_id = $5",
		"t.created_at >= $6",
		"(t.title ILIKE $7 OR t.description ILIKE $7)",
	} {
		if !strings.Contains(sql, fragment) {
			t.Errorf("where clause %q missing %q", sql, fragment)
		}
	}
	if len(w.args) != 7 {
		t.Fatalf("args = %v", w.args)
	}
	if w.args[6] != "%printer%" {
		t.Errorf("search arg = %v", w.args[6])
	}
}

func TestBuildItemWhereRequirementArea(t *testing.T) {
	dept := int64(9)
	w := buildItemWhere(ItemFilter{DepartmentID: &dept}, requirementSchema)
	if got := w.sql(); got != " WHERE t.department_id = $1" {
		t.Fatalf("unexpected where: %q", got)
	}
}

func TestBuildItemWhereDateBounds(t *testing.T) {
	to := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	before := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	w := buildItemWhere(ItemFilter{DateTo: &to, DateBefore: &before}, incidentSchema)
	if got := w.sql(); got != " WHERE t.created_at <= $1 AND t.created_at < $2" {
		t.Fatalf("unexpected where: %q", got)
	}
	if len(w.args) != 2 || w.args[1] != before {
		t.Fatalf("args = %v", w.args)
	}
}

func TestBuildItemWhereEmpty(t *testing.T) {
	w := buildItemWhere(ItemFilter{Search: "   "}, incidentSchema)
	if w.sql() != "" || len(w.args) != 0 {
		t.Fatalf("expected empty where, got %q %v", w.sql(), w.args)
	}
}

func TestLikePatternEscapes(t *testing.T) {
	if got := likePattern(" 50%_off "); got != `%50\%\_off%` {
		t.Fatalf("likePattern = %q", got)
	}
}
