package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by services, repositories and the delivery layer.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrStorage             = errors.New("storage failure")
	ErrPartialFailure      = errors.New("partial failure")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// FieldError represents a single field's validation error.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// ValidationError is returned when caller input is malformed. It matches ErrInvalidInput.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError returns nil when fields is empty.
func NewValidationError(fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Failure stages reported by PartialFailureError.
const (
	StageInvitees      = "invitees"
	StageNotifications = "notifications"
)

// PartialFailureError is returned next to an otherwise successful result when a write
// went through but a later step did not: the invitee reconciliation after an event field
// update, or one or more notification enqueues.
type PartialFailureError struct {
	Stage          string
	NotifyFailures []NotifyFailure
	Err            error
}

func (e *PartialFailureError) Error() string {
	switch e.Stage {
	case StageNotifications:
		emails := make([]string, 0, len(e.NotifyFailures))
		for _, f := range e.NotifyFailures {
			emails = append(emails, f.Email)
		}
		return fmt.Sprintf("partial failure: %d notification(s) not enqueued: %s", len(emails), strings.Join(emails, ", "))
	default:
		return fmt.Sprintf("partial failure: %s: %v", e.Stage, e.Err)
	}
}

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }

func (e *PartialFailureError) Unwrap() error { return e.Err }
