// Package errors provides domain-specific error types and sentinel errors
// for the interaction workflow.
//
// Every failure a guild member can trigger is a *UserError carrying a Kind
// and the ephemeral message shown in Discord. Anything else reaching the
// router is treated as an internal (storage) failure.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrSelectionExpired indicates the clicked search result is no longer cached
	// or the index is out of range.
	ErrSelectionExpired = errors.New("selection expired")

	// ErrNoPendingSelection indicates a schedule form arrived without a prior pick.
	ErrNoPendingSelection = errors.New("no pending selection")

	// ErrInvalidDate indicates a malformed, non-calendar or non-future date.
	ErrInvalidDate = errors.New("invalid discussion date")

	// ErrEmptyAssignment indicates the reading assignment was blank.
	ErrEmptyAssignment = errors.New("empty reading assignment")

	// ErrEmptyQuery indicates /search was invoked without any search option.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrForbidden indicates the caller lacks the moderator role.
	ErrForbidden = errors.New("forbidden")

	// ErrBookExists indicates the guild already has a current book.
	ErrBookExists = errors.New("current book already exists")

	// ErrNothingToDelete indicates delete was confirmed with no current book.
	ErrNothingToDelete = errors.New("nothing to delete")

	// ErrNothingToFinish indicates finish was requested with no current book.
	ErrNothingToFinish = errors.New("nothing to finish")

	// ErrVersionConflict indicates a concurrent update changed the current book.
	ErrVersionConflict = errors.New("current book changed concurrently")

	// ErrSearchUnavailable indicates the book search collaborator failed.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrUnknownInteraction indicates no route matched the interaction.
	ErrUnknownInteraction = errors.New("unknown interaction")

	// ErrRateLimitExceeded indicates the user is sending interactions too fast.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Kind classifies a user-visible failure.
type Kind int

const (
	// KindInternal is any failure the user cannot fix (storage, bugs).
	KindInternal Kind = iota
	// KindValidation covers bad dates, empty queries and missing selections.
	KindValidation
	// KindPermission covers missing moderator role.
	KindPermission
	// KindStateConflict covers duplicate creation and nothing-to-delete/finish.
	KindStateConflict
	// KindCollaborator covers search and dictionary failures.
	KindCollaborator
)

// String returns the metric label for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindStateConflict:
		return "state_conflict"
	case KindCollaborator:
		return "collaborator"
	default:
		return "internal"
	}
}

// UserError is a failure rendered to the invoking user as an ephemeral message.
type UserError struct {
	Kind        Kind
	Sentinel    error
	UserMessage string
	Cause       error
}

func (e *UserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v: %v", e.Kind, e.Sentinel, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Sentinel)
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *UserError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Sentinel != nil {
		errs = append(errs, e.Sentinel)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewUserError creates a user-visible error.
func NewUserError(kind Kind, sentinel error, userMessage string) *UserError {
	return &UserError{
		Kind:        kind,
		Sentinel:    sentinel,
		UserMessage: userMessage,
	}
}

// WithCause returns a copy of the error carrying the underlying cause.
func (e *UserError) WithCause(cause error) *UserError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// KindOf returns the Kind of err, or KindInternal when err is not a UserError.
func KindOf(err error) Kind {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindInternal
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error wrapping a sentinel.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// CollaboratorError represents a failed call to an external API.
type CollaboratorError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *CollaboratorError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status=%d): %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Service, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// NewCollaboratorError creates a new collaborator error.
func NewCollaboratorError(service string, statusCode int, err error) *CollaboratorError {
	return &CollaboratorError{
		Service:    service,
		StatusCode: statusCode,
		Err:        err,
	}
}

// GetUserMessage returns the outermost user-facing message carried by err.
// The second result is false when err carries no message safe to show.
func GetUserMessage(err error) (string, bool) {
	var ue *UserError
	if errors.As(err, &ue) && ue.UserMessage != "" {
		return ue.UserMessage, true
	}
	return "", false
}
