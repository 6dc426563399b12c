package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// itemSchema names the columns that differ between incidents and requirements.
type itemSchema struct {
	table           string
	areaColumn      string
	completedColumn string
	resource        string
}

var (
	incidentSchema = itemSchema{
		table:           "incidents",
		areaColumn:      "affected_area_id",
		completedColumn: "resolved_at",
		resource:        "incident",
	}
	requirementSchema = itemSchema{
		table:           "requirements",
		areaColumn:      "department_id",
		completedColumn: "delivered_at",
		resource:        "requirement",
	}
)

func (s itemSchema) selectSQL() string {
	return fmt.Sprintf(`
        SELECT t.id, t.title, t.description, t.type, t.priority, t.status, t.%[2]s,
               t.assigned_to, t.created_by, t.created_at, t.last_modified_at, t.last_modified_by, t.%[3]s,
               d.name,
               COALESCE(NULLIF(a.full_name, ''), a.email),
               COALESCE(NULLIF(c.full_name, ''), c.email)
        FROM %[1]s t
        LEFT JOIN departments d ON d.id = t.%[2]s
        LEFT JOIN users a ON a.id = t.assigned_to
        LEFT JOIN users c ON c.id = t.created_by`, s.table, s.areaColumn, s.completedColumn)
}

// itemRow is the column set shared by incidents and requirements.
type itemRow struct {
	ID             string
	Title          string
	Description    string
	Type           string
	Priority       string
	Status         string
	AreaID         int64
	AssignedTo     *string
	CreatedBy      string
	CreatedAt      time.Time
	LastModifiedAt time.Time
	LastModifiedBy *string
	CompletedAt    *time.Time

	AreaName     *string
	AssigneeName *string
	CreatorName  *string
}

// itemStore implements the queries common to both item tables.
type itemStore struct {
	pool   *pgxpool.Pool
	schema itemSchema
}

func (s itemStore) list(ctx context.Context, f ItemFilter) (*Page[itemRow], error) {
	req := f.PageRequest.Normalize()
	w := buildItemWhere(f, s.schema)

	var total int
	countSQL := "SELECT COUNT(*) FROM " + s.schema.table + " t" + w.sql()
	if err := s.pool.QueryRow(ctx, countSQL, w.args...).Scan(&total); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, s.schema.resource, err)
	}

	page, offset := ResolvePage(req, total)
	if total == 0 {
		return NewPage[itemRow](nil, 0, req, page), nil
	}

	query := s.schema.selectSQL() + w.sql() +
		fmt.Sprintf(" ORDER BY t.created_at DESC, t.id DESC LIMIT %d OFFSET %d", req.Limit, offset)
	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, s.schema.resource, err)
	}
	defer rows.Close()

	var items []itemRow
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, s.schema.resource, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, s.schema.resource, err)
	}
	return NewPage(items, total, req, page), nil
}

func (s itemStore) get(ctx context.Context, id string) (*itemRow, error) {
	row := s.pool.QueryRow(ctx, s.schema.selectSQL()+" WHERE t.id = $1", id)
	item, err := scanItem(row)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.KindQueryFailed, s.schema.resource, err)
	}
	return item, nil
}

func (s itemStore) insert(ctx context.Context, item *itemRow) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (title, description, type, priority, status, %s, assigned_to, created_by, last_modified_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
        RETURNING id, created_at, last_modified_at`, s.schema.table, s.schema.areaColumn)

	err := s.pool.QueryRow(ctx, query,
		item.Title,
		item.Description,
		item.Type,
		item.Priority,
		item.Status,
		item.AreaID,
		item.AssignedTo,
		item.CreatedBy,
	).Scan(&item.ID, &item.CreatedAt, &item.LastModifiedAt)
	if err != nil {
		return apperrors.NewStoreError(apperrors.KindInsertFailed, s.schema.resource, err)
	}
	createdBy := item.CreatedBy
	item.LastModifiedBy = &createdBy
	return nil
}

func (s itemStore) update(ctx context.Context, id string, p ItemPatch) error {
	var w whereBuilder
	var sets []string
	set := func(column string, v any) {
		sets = append(sets, column+" = "+w.arg(v))
	}

	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Type != nil {
		set("type", *p.Type)
	}
	if p.Priority != nil {
		set("priority", *p.Priority)
	}
	if p.AssignedTo.Set {
		set("assigned_to", p.AssignedTo.Value)
	}
	if p.DepartmentID != nil {
		set(s.schema.areaColumn, *p.DepartmentID)
	}
	if p.Status != nil {
		set("status", *p.Status)
	}
	if p.CompletedAt.Set {
		set(s.schema.completedColumn, p.CompletedAt.Value)
	}
	set("last_modified_at", p.ModifiedAt)
	set("last_modified_by", p.ModifiedBy)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s", s.schema.table, strings.Join(sets, ", "), w.arg(id))
	if p.ExpectedLastModifiedAt != nil {
		query += " AND last_modified_at = " + w.arg(*p.ExpectedLastModifiedAt)
	}

	tag, err := s.pool.Exec(ctx, query, w.args...)
	if err != nil {
		return apperrors.NewStoreError(apperrors.KindUpdateFailed, s.schema.resource, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if p.ExpectedLastModifiedAt != nil {
		var exists bool
		existsSQL := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", s.schema.table)
		if err := s.pool.QueryRow(ctx, existsSQL, id).Scan(&exists); err != nil {
			return apperrors.NewStoreError(apperrors.KindUpdateFailed, s.schema.resource, err)
		}
		if exists {
			return apperrors.NewStoreError(apperrors.KindUpdateFailed, s.schema.resource, apperrors.ErrPreconditionFailed)
		}
	}
	return apperrors.NewStoreError(apperrors.KindUpdateFailed, s.schema.resource, pgx.ErrNoRows)
}

func (s itemStore) delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM "+s.schema.table+" WHERE id = $1", id)
	if err != nil {
		return apperrors.NewStoreError(apperrors.KindDeleteFailed, s.schema.resource, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFound(s.schema.resource, map[string]any{"id": id})
	}
	return nil
}

func (s itemStore) count(ctx context.Context, status string) (int, error) {
	query := "SELECT COUNT(*) FROM " + s.schema.table
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	var total int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, apperrors.NewStoreError(apperrors.KindQueryFailed, s.schema.resource, err)
	}
	return total, nil
}

func scanItem(row pgx.Row) (*itemRow, error) {
	var item itemRow
	if err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Type,
		&item.Priority,
		&item.Status,
		&item.AreaID,
		&item.AssignedTo,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.LastModifiedAt,
		&item.LastModifiedBy,
		&item.CompletedAt,
		&item.AreaName,
		&item.AssigneeName,
		&item.CreatorName,
	); err != nil {
		return nil, err
	}
	return &item, nil
}
