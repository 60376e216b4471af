package retrieval

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "query", Message: "query is required"}

	want := "validation error on field query: query is required"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}

	var ve *ValidationError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &ve) || ve.Field != "query" {
		t.Error("errors.As() should find the ValidationError through wrapping")
	}
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	err := unavailable("embedding", cause)

	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Error("unavailable() should wrap ErrDependencyUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("unavailable() should wrap the cause")
	}
}
