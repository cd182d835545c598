// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package apperr holds error types shared by services and handlers.
package apperr

import "fmt"

// ValidationError reports malformed input. Field is empty when the error is
// not tied to a single input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid returns a ValidationError for field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
