package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestUserError_Is(t *testing.T) {
	cause := errors.New("sqlite: busy")
	err := NewUserError(KindStateConflict, ErrBookExists, "already set").WithCause(cause)

	if !errors.Is(err, ErrBookExists) {
		t.Error("expected errors.Is to match the sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the cause")
	}
	if errors.Is(err, ErrNothingToDelete) {
		t.Error("unexpected match on unrelated sentinel")
	}
}

func TestUserError_WithCauseDoesNotMutate(t *testing.T) {
	base := NewUserError(KindValidation, ErrInvalidDate, "bad date")
	_ = base.WithCause(errors.New("boom"))

	if base.Cause != nil {
		t.Errorf("WithCause mutated the receiver: %v", base.Cause)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error", errors.New("x"), KindInternal},
		{"nil", nil, KindInternal},
		{"validation", NewUserError(KindValidation, ErrEmptyQuery, "m"), KindValidation},
		{"wrapped permission", fmt.Errorf("step: %w", NewUserError(KindPermission, ErrForbidden, "m")), KindPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindInternal:      "internal",
		KindValidation:    "validation",
		KindPermission:    "permission",
		KindStateConflict: "state_conflict",
		KindCollaborator:  "collaborator",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("discussion_date", "must be in the future", ErrInvalidDate)

	if err.Field != "discussion_date" {
		t.Errorf("expected field 'discussion_date', got '%s'", err.Field)
	}
	if !errors.Is(err, ErrInvalidDate) {
		t.Error("expected validation error to unwrap to ErrInvalidDate")
	}

	expected := "validation failed on discussion_date: must be in the future"
	if err.Error() != expected {
		t.Errorf("expected '%s', got '%s'", expected, err.Error())
	}
}

func TestCollaboratorError(t *testing.T) {
	base := errors.New("connection reset")
	err := NewCollaboratorError("googlebooks", 503, base)

	if !errors.Is(err, base) {
		t.Error("expected collaborator error to unwrap")
	}
	if err.Error() != "googlebooks error (status=503): connection reset" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	noStatus := NewCollaboratorError("dictionary", 0, base)
	if noStatus.Error() != "dictionary error: connection reset" {
		t.Errorf("unexpected message: %s", noStatus.Error())
	}
}

func TestGetUserMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"plain error hides details", errors.New("sql: connection refused"), "", false},
		{"user error", NewUserError(KindValidation, ErrEmptyQuery, "give me a title"), "give me a title", true},
		{"wrapped user error", fmt.Errorf("search: %w", NewUserError(KindPermission, ErrForbidden, "mods only")), "mods only", true},
		{"no message", NewUserError(KindStateConflict, ErrBookExists, ""), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GetUserMessage(tt.err)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("GetUserMessage() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
