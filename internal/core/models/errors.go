package models

import "fmt"

// NotFoundError reports a missing session date or task reference.
type NotFoundError struct {
	Kind string // "session", "task", "profile"
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Ref)
}

// ValidationError reports input rejected before any mutation took place.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validationf builds a ValidationError with a formatted reason.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
