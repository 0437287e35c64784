package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures of the stock core.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindValidation        ErrorKind = "validation"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindCapacityExceeded  ErrorKind = "capacity_exceeded"
	KindInvalidSplit      ErrorKind = "invalid_split"
	KindInvalidState      ErrorKind = "invalid_state"
	KindConflict          ErrorKind = "conflict"
	KindTimeout           ErrorKind = "timeout"
)

// Error carries a kind plus the offending entity, id and field so callers can
// render their own message.
type Error struct {
	Kind    ErrorKind
	Entity  string
	ID      string
	Field   string
	Message string
	Err     error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded}
	ErrInvalidSplit      = &Error{Kind: KindInvalidSplit}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrTimeout           = &Error{Kind: KindTimeout}
)

func (e *Error) Error() string {
	parts := []string{string(e.Kind)}
	if e.Entity != "" {
		ref := e.Entity
		if e.ID != "" {
			ref += " " + e.ID
		}
		parts = append(parts, ref)
	}
	if e.Field != "" {
		parts = append(parts, "field "+e.Field)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	msg := strings.Join(parts, ": ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound builds a not-found error for an entity id.
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id}
}

// Invalid builds a validation error on a field.
func Invalid(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Insufficient builds an insufficient-stock error for a batch or supply item.
func Insufficient(entity, id string, available, requested string) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Entity:  entity,
		ID:      id,
		Field:   "quantity",
		Message: fmt.Sprintf("requested %s, available %s", requested, available),
	}
}

// CapacityExceeded builds a capacity error for a coop.
func CapacityExceeded(coopID string, available, requested int) *Error {
	return &Error{
		Kind:    KindCapacityExceeded,
		Entity:  "coop",
		ID:      coopID,
		Field:   "quantity",
		Message: fmt.Sprintf("requested %d, available %d", requested, available),
	}
}

// InvalidSplit builds a split error naming the offending side.
func InvalidSplit(side, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidSplit, Field: side, Message: fmt.Sprintf(format, args...)}
}

// InvalidState builds an error for an operation the entity's state forbids.
func InvalidState(entity, id, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}

// Conflict wraps a concurrent-mutation failure.
func Conflict(entity, id string, err error) *Error {
	return &Error{Kind: KindConflict, Entity: entity, ID: id, Err: err}
}

// KindOf extracts the kind of err, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether the caller may retry the operation unchanged.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindConflict, KindTimeout:
		return true
	}
	return false
}

// Timeout wraps a unit of work that ran past its deadline.
func Timeout(op string, err error) *Error {
	return &Error{Kind: KindTimeout, Message: op, Err: err}
}
