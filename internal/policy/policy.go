// Package policy decides which fields a role may edit on an incident or
// requirement. It performs no I/O and is safe to call from any layer.
package policy

import (
	"fmt"
	"sort"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Field names an editable attribute of an item, using the wire spelling.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldType        Field = "type"
	FieldPriority    Field = "priority"
	FieldAssignedTo  Field = "assignedTo"
	FieldDepartment  Field = "departmentId"
	FieldStatus      Field = "status"
)

// contentFields may be edited by technicians while an item is open.
var contentFields = []Field{FieldTitle, FieldDescription, FieldType, FieldPriority, FieldAssignedTo}

// allFields is the admin field set.
var allFields = []Field{FieldTitle, FieldDescription, FieldType, FieldPriority, FieldAssignedTo, FieldDepartment, FieldStatus}

// Item is the piece of entity state the policy depends on.
type Item interface {
	IsOpen() bool
}

// PermissionView is what a role may do with an item.
type PermissionView struct {
	AllowedFields  []Field `json:"allowedFields"`
	CanEditStatus  bool    `json:"canEditStatus"`
	CanEditArea    bool    `json:"canEditArea"`
	CanEditContent bool    `json:"canEditContent"`
	IsReadOnly     bool    `json:"isReadOnly"`
}

// Allows reports whether field is in the allowed set.
func (v PermissionView) Allows(field Field) bool {
	for _, f := range v.AllowedFields {
		if f == field {
			return true
		}
	}
	return false
}

// ComputePermissions returns the permission view of role over item. A nil
// item means the caller is about to create one.
func ComputePermissions(role domain.RoleName, item Item) PermissionView {
	switch role {
	case domain.RoleAdmin:
		return PermissionView{
			AllowedFields:  fieldsCopy(allFields),
			CanEditStatus:  true,
			CanEditArea:    true,
			CanEditContent: true,
			IsReadOnly:     false,
		}
	case domain.RoleTechnician:
		if item == nil {
			return PermissionView{
				AllowedFields:  fieldsCopy(contentFields),
				CanEditStatus:  false,
				CanEditArea:    true,
				CanEditContent: true,
				IsReadOnly:     false,
			}
		}
		open := item.IsOpen()
		return PermissionView{
			AllowedFields:  fieldsCopy(contentFields),
			CanEditStatus:  false,
			CanEditArea:    false,
			CanEditContent: open,
			IsReadOnly:     !open,
		}
	case domain.RoleRequester:
		return readOnly()
	default:
		return readOnly()
	}
}

// Authorize fails with Forbidden unless every changed field is permitted.
// Status and area are governed by their flags alone; content fields must
// also appear in the allowed set.
func Authorize(view PermissionView, changed []Field) error {
	if len(changed) == 0 {
		return nil
	}
	if view.IsReadOnly {
		return apperrors.NewForbidden("item is read-only for your role")
	}
	for _, field := range changed {
		switch field {
		case FieldStatus:
			if !view.CanEditStatus {
				return apperrors.NewForbidden("your role cannot change status")
			}
		case FieldDepartment:
			if !view.CanEditArea {
				return apperrors.NewForbidden("your role cannot change the affected area")
			}
		default:
			if !view.CanEditContent {
				return apperrors.NewForbidden("your role cannot edit content")
			}
			if !view.Allows(field) {
				return apperrors.NewForbidden(fmt.Sprintf("field %q is not editable by your role", field))
			}
		}
	}
	return nil
}

// AllowsDelete reports whether the view permits removing the item.
func AllowsDelete(view PermissionView) bool {
	return !view.IsReadOnly && view.CanEditContent
}

func readOnly() PermissionView {
	return PermissionView{AllowedFields: []Field{}, IsReadOnly: true}
}

func fieldsCopy(fields []Field) []Field {
	out := append([]Field(nil), fields...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
