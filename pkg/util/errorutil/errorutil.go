package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
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
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewInvalidTransition rejects a state change that the registry does not
// allow, naming the current and requested states.
func NewInvalidTransition(entityType, current, requested string) error {
	return &DomainError{
		Code:       "INVALID_TRANSITION",
		Message:    fmt.Sprintf("%s cannot transition from %s to %s", entityType, current, requested),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"entity_type":     entityType,
			"current_state":   current,
			"requested_state": requested,
		},
	}
}

// NewAutomationFailure wraps a dispatcher handler error. It is recorded on the
// outbox event and never surfaced to API callers.
func NewAutomationFailure(eventType string, err error) error {
	return &DomainError{
		Code:       "AUTOMATION_FAILURE",
		Message:    fmt.Sprintf("automation for %s failed", eventType),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"event_type": eventType},
		Err:        err,
	}
}

// NewCollectorUnavailable marks a metric source as temporarily unreachable.
// The monitoring loop logs it and retries next cycle.
func NewCollectorUnavailable(collector string, err error) error {
	return &DomainError{
		Code:       "COLLECTOR_UNAVAILABLE",
		Message:    fmt.Sprintf("collector %s unavailable", collector),
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"collector": collector},
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
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
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
