// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the typed errors shared by the listing service,
// the stores behind it and the HTTP layer. Each error carries a Code that
// the handlers translate into a status and a client-safe message.
package apperr

import (
	"errors"
	"net/http"
)

// Code classifies an application error.
type Code string

const (
	CodeValidation       Code = "validation"
	CodeNotFound         Code = "not_found"
	CodeInvalidReference Code = "invalid_reference"
	CodeUnauthorized     Code = "unauthorized"
	CodeForbidden        Code = "forbidden"
	CodePersistence      Code = "persistence"
)

// Error is an application error with a classification code and a message
// that is safe to show to API clients.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Validation reports malformed input.
func Validation(msg string) error { return New(CodeValidation, msg) }

// NotFound reports that the addressed resource does not exist.
func NotFound(msg string) error { return New(CodeNotFound, msg) }

// MissingReference reports that an entity referenced by the request body
// does not exist. It is a client error rather than a missing resource.
func MissingReference(msg string) error { return New(CodeInvalidReference, msg) }

// Forbidden reports a failed capability check.
func Forbidden(msg string) error { return New(CodeForbidden, msg) }

// Unauthorized reports a missing or invalid credential.
func Unauthorized(msg string) error { return New(CodeUnauthorized, msg) }

// Persistence wraps a storage failure.
func Persistence(err error, msg string) error { return Wrap(err, CodePersistence, msg) }

// CodeOf returns the code of the first *Error in err's chain. Errors that
// carry no code are treated as persistence failures.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodePersistence
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// Message returns the client-facing message for err. Persistence failures
// never leak driver details.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != CodePersistence {
		return e.Message
	}
	return "Something went wrong"
}

// Status maps an error to an HTTP status code.
func Status(err error) int {
	switch CodeOf(err) {
	case CodeValidation, CodeInvalidReference:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
