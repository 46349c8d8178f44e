package apperr

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already exists")
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError collects every rule violation found for one write.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, ", ")
}

// Is lets errors.Is(err, ErrInvalidInput) match validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid builds a single-message validation error.
func Invalid(msg string) error {
	return &ValidationError{Errors: []string{msg}}
}

// messageError carries a client-facing message for one of the sentinels.
type messageError struct {
	kind error
	msg  string
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) Unwrap() error { return e.kind }

func Forbidden(msg string) error { return &messageError{kind: ErrForbidden, msg: msg} }
func NotFound(msg string) error  { return &messageError{kind: ErrNotFound, msg: msg} }
func Conflict(msg string) error  { return &messageError{kind: ErrConflict, msg: msg} }
func Unauthorized(msg string) error {
	return &messageError{kind: ErrUnauthorized, msg: msg}
}

// Message returns the client-facing text carried by err, or "" when err
// only wraps a bare sentinel.
func Message(err error) string {
	var m *messageError
	if errors.As(err, &m) {
		return m.msg
	}
	return ""
}
