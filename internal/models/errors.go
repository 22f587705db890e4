package models

import (
	"errors"
	"strings"
)

// Error taxonomy shared by all services. Handlers map these onto HTTP status
// classes; everything else is treated as an internal error and logged.
var (
	ErrValidation   = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrDependency   = errors.New("dependency failure")
)

// ValidationError collects every failed check so a signup with a weak
// password and a malformed email reports both at once.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold for collected validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
