// Package apperr defines the error taxonomy shared by services and the HTTP layer.
//
// Services return *Error for expected failures (bad input, missing resource,
// wrong credentials) and plain wrapped errors for everything else. The HTTP
// layer turns any error into a status code plus a machine-readable tag and a
// human-readable message using From.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mmynk/findash/internal/models"
)

// Code classifies an error.
type Code int

const (
	CodeInternal Code = iota
	CodeValidation
	CodeUnauthenticated
	CodeForbidden
	CodeNotFound
	CodeConflict
	CodeRateLimited
)

var codeNames = map[Code]string{
	CodeInternal:        "internal",
	CodeValidation:      "validation",
	CodeUnauthenticated: "unauthenticated",
	CodeForbidden:       "forbidden",
	CodeNotFound:        "not_found",
	CodeConflict:        "conflict",
	CodeRateLimited:     "rate_limited",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// HTTPStatus maps the code to a response status.
// Conflicts are reported as 400, which is what existing clients expect.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeConflict:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is an API-facing failure.
type Error struct {
	Code Code
	// Tag is the short label sent in the "error" field of the response.
	Tag string
	// Message is the human-readable explanation.
	Message string
	// Fields lists per-field problems for validation failures.
	Fields []models.FieldError
	// Err is the underlying cause, if any. It is logged, never sent.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tag, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error without an underlying cause.
func New(code Code, tag, message string) *Error {
	return &Error{Code: code, Tag: tag, Message: message}
}

// Wrap creates an error that keeps err as its cause.
func Wrap(code Code, tag, message string, err error) *Error {
	return &Error{Code: code, Tag: tag, Message: message, Err: err}
}

// Validation creates a 400 error listing the offending fields.
func Validation(message string, fields []models.FieldError) *Error {
	return &Error{Code: CodeValidation, Tag: "Validation error", Message: message, Fields: fields}
}

// FromValidation converts a failed ValidationResult. The field messages are
// joined into the summary unless message is given.
func FromValidation(r models.ValidationResult, message string) *Error {
	if message == "" {
		message = r.Error()
	}
	return Validation(message, r.Errors)
}

// NotFound creates a 404 error.
func NotFound(tag, message string) *Error {
	return New(CodeNotFound, tag, message)
}

// Internal wraps an unexpected failure.
func Internal(tag, message string, err error) *Error {
	return Wrap(CodeInternal, tag, message, err)
}

// From converts any error into an *Error, using fallback for the tag and
// message of unexpected failures.
func From(err error, fallbackTag, fallbackMessage string) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(fallbackTag, fallbackMessage, err)
}
