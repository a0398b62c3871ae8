package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned when the request input breaks a rule (HTTP 400).
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewArgumentError is a shortcut for a ValidationError carrying only a message.
func NewArgumentError(format string, args ...interface{}) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is returned when a requested resource does not exist (HTTP 404).
type NotFoundError struct {
	message string
}

func NewNotFoundError(format string, args ...interface{}) error {
	return &NotFoundError{message: fmt.Sprintf(format, args...)}
}

func (err NotFoundError) Error() string {
	return err.message
}

// UnauthorizedError is returned when the caller could not be authenticated (HTTP 401).
type UnauthorizedError struct {
	message string
}

func NewUnauthorizedError(msg string) error {
	return &UnauthorizedError{message: msg}
}

func (err UnauthorizedError) Error() string {
	return err.message
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// NotFoundWithID turns a repository not-found error into "<entity> with ID <id> not found.".
func NotFoundWithID(err error, entity string, id interface{}) error {
	if IsNotFound(err) {
		return NewNotFoundError("%s with ID %v not found.", entity, id)
	}
	return err
}
