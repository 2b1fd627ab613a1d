package spec

import (
	"errors"
	"fmt"
)

// Spec validation errors.
var (
	// ErrInvalidSpec indicates a request specification failed validation.
	ErrInvalidSpec = errors.New("invalid select spec")
)

// ValidationError provides details about spec validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid select spec: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSpec
}
