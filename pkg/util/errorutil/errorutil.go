package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind is the stable, client-facing name of an error class.
type Kind string

const (
	KindUnauthenticated Kind = "Unauthenticated"
	KindForbidden       Kind = "Forbidden"
	KindValidation      Kind = "ValidationError"
	KindNotFound        Kind = "NotFound"
	KindConflict        Kind = "Conflict"
	KindQueryFailed     Kind = "QueryFailed"
	KindInsertFailed    Kind = "InsertFailed"
	KindUpdateFailed    Kind = "UpdateFailed"
	KindDeleteFailed    Kind = "DeleteFailed"
	KindUnhandled       Kind = "UnhandledError"
)

// Postgres SQLSTATE codes surfaced as conflicts.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

// ErrPreconditionFailed signals that a conditional write matched no row
// because the stored version moved on.
var ErrPreconditionFailed = errors.New("precondition failed")

// DomainError standardizes application errors.
type DomainError struct {
	Kind       Kind
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(kind Kind, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Kind: kind, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(KindValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthenticated(message string) error {
	return NewDomainError(KindUnauthenticated, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(KindForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(KindConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Kind:       KindUnhandled,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStoreError classifies a backing-store failure. Constraint violations
// become conflicts, missing rows become not-found, and everything else is
// reported under the given kind with the store's message.
func NewStoreError(kind Kind, resource string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound(resource, nil)
	}
	if errors.Is(err, ErrPreconditionFailed) {
		return &DomainError{
			Kind:       KindConflict,
			Message:    fmt.Sprintf("%s was modified by someone else", resource),
			HTTPStatus: http.StatusConflict,
			Err:        err,
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return &DomainError{
				Kind:       KindConflict,
				Message:    fmt.Sprintf("%s is referenced by other records", resource),
				HTTPStatus: http.StatusConflict,
				Details:    map[string]any{"constraint": pgErr.ConstraintName},
				Err:        err,
			}
		case pgCheckViolation, pgInvalidText:
			return &DomainError{
				Kind:       KindValidation,
				Message:    pgErr.Message,
				HTTPStatus: http.StatusBadRequest,
				Err:        err,
			}
		case pgUniqueViolation:
			return &DomainError{
				Kind:       KindConflict,
				Message:    fmt.Sprintf("%s already exists", resource),
				HTTPStatus: http.StatusConflict,
				Details:    map[string]any{"constraint": pgErr.ConstraintName},
				Err:        err,
			}
		}
		return &DomainError{Kind: kind, Message: pgErr.Message, HTTPStatus: http.StatusInternalServerError, Err: err}
	}
	return &DomainError{Kind: kind, Message: err.Error(), HTTPStatus: http.StatusInternalServerError, Err: err}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Kind:       KindUnhandled,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Kind == kind
}
