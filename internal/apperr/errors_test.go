package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorJoinsMessages(t *testing.T) {
	err := &ValidationError{Errors: []string{"a is missing", "b must be a number"}}
	if got := err.Error(); got != "a is missing, b must be a number" {
		t.Fatalf("unexpected message: %q", got)
	}
	wrapped := fmt.Errorf("create lead: %w", err)
	if !errors.Is(wrapped, ErrInvalidInput) {
		t.Fatalf("expected wrapped validation error to match ErrInvalidInput")
	}
	var ve *ValidationError
	if !errors.As(wrapped, &ve) || len(ve.Errors) != 2 {
		t.Fatalf("errors.As failed: %v", ve)
	}
}

func TestInvalid(t *testing.T) {
	err := Invalid("limit must be between 1 and 100")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected match with ErrNotFound")
	}
}

func TestMessageErrorsKeepKind(t *testing.T) {
	err := fmt.Errorf("update lead: %w", Forbidden("Only owner or admin can change ownership"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden kind")
	}
	if Forbidden("x").Error() != "x" || NotFound("lead not found").Error() != "lead not found" {
		t.Fatalf("message not preserved")
	}
}
