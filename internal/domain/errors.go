package domain

import (
	"fmt"
	"strings"
)

// ValidationError is returned for caller-fixable input problems.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError means the entity does not exist or belongs to another tenant.
type NotFoundError struct {
	Entity string
	ID     int32
	// Key replaces ID for entities addressed by an opaque token.
	Key    string
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func NewNotFoundError(entity string, id int32) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func NewNotFoundKeyError(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

// ConflictError reports state that changed underneath the caller.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Message
}

func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// IntegrationError reports an unusable external input such as a bank statement file.
type IntegrationError struct {
	Reason  string
	Missing []string
}

func (e *IntegrationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("integration error: %s (missing columns: %s)", e.Reason, strings.Join(e.Missing, ", "))
	}
	return "integration error: " + e.Reason
}
