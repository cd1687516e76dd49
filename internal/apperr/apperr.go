// Package apperr defines the error kinds surfaced by the attendance and task services.
//
// Every failure that reaches a client carries a stable Kind, an HTTP status code and a
// human-readable message. Unexpected failures are wrapped as KindInternal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of failure.
type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindAlreadyCheckedIn   Kind = "AlreadyCheckedIn"
	KindNoActiveDay        Kind = "NoActiveDay"
	KindMustClockInFirst   Kind = "MustClockInFirst"
	KindMustClockOutFirst  Kind = "MustClockOutFirst"
	KindTaskNotFound       Kind = "TaskNotFound"
	KindDuplicateEmail     Kind = "DuplicateEmail"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindUnauthorized       Kind = "Unauthorized"
	KindConflict           Kind = "Conflict"
	KindTooManyRequests    Kind = "TooManyRequests"
	KindInternal           Kind = "InternalError"
)

// Error is a domain failure with a status code for the transport layer.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNoActiveDay) holds even
// when the message was customised.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind.
func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

var (
	ErrAlreadyCheckedIn   = New(KindAlreadyCheckedIn, http.StatusBadRequest, "You have already checked in for today.")
	ErrNoActiveDay        = New(KindNoActiveDay, http.StatusNotFound, "No active Day In record found.")
	ErrMustClockInFirst   = New(KindMustClockInFirst, http.StatusBadRequest, "You must clock in before clocking out.")
	ErrMustClockOutFirst  = New(KindMustClockOutFirst, http.StatusBadRequest, "You must clock out before clocking in again.")
	ErrTaskNotFound       = New(KindTaskNotFound, http.StatusNotFound, "Task not found.")
	ErrDuplicateEmail     = New(KindDuplicateEmail, http.StatusForbidden, "Email is already taken.")
	ErrInvalidCredentials = New(KindInvalidCredentials, http.StatusForbidden, "Email address or password you entered is incorrect.")
	ErrTokenMissing       = New(KindUnauthorized, http.StatusUnauthorized, "Token not provided.")
	ErrTokenInvalid       = New(KindUnauthorized, http.StatusUnauthorized, "Invalid or expired token")
	ErrConflict           = New(KindConflict, http.StatusConflict, "The record was modified by another request, please retry.")
)

// Validation reports bad or missing input.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, http.StatusBadRequest, fmt.Sprintf(format, args...))
}

// TooManyRequests reports a rate limit rejection.
func TooManyRequests(message string) *Error {
	return New(KindTooManyRequests, http.StatusTooManyRequests, message)
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Status:  http.StatusInternalServerError,
		Message: "Internal Server Error",
		Err:     err,
	}
}

// From returns err as an *Error, keeping its kind and status when it already is one
// and wrapping it as an internal error otherwise.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Status == 0 {
			cp := *ae
			cp.Status = http.StatusInternalServerError
			return &cp
		}
		return ae
	}
	return Internal(err)
}
