package retrieval

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDependencyUnavailable marks failures of optional dependencies
	// (embedding service, search engine, vector index). Stages that hit it
	// are skipped; it never reaches callers of Engine.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidInput) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func unavailable(dependency string, err error) error {
	return fmt.Errorf("%s: %w: %w", dependency, ErrDependencyUnavailable, err)
}
