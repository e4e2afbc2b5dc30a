// Package apperror defines the error taxonomy of the SnipCity client.
//
// Every failure that reaches a user falls into one of a few categories, each
// with a sentinel error so callers can branch with errors.Is:
//
//	ErrUnauthorized → no token, or the API rejected it       → prompt to sign in
//	ErrNotFound     → the referenced snippet does not exist  → "not found"
//	ErrRemote       → any other non-2xx response              → server message verbatim
//	ErrNetwork      → the request never got a response        → generic "try again"
//	ErrValidation   → a payload failed client-side checks     → field message
//	ErrConflict     → local state refused the operation       → message
//	ErrSession      → the local session store failed          → message
//
// The concrete *AppError carries the human-readable message (and, for remote
// errors, the HTTP status). Unwrap returns the sentinel, which is what makes
// errors.Is work through any number of fmt.Errorf("...: %w") layers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrRemote       = errors.New("remote error")
	ErrNetwork      = errors.New("network error")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrSession      = errors.New("session store error")
)

type AppError struct {
	Err     error  // sentinel category
	Message string // Human-readable error message
	Field   string // Optional: field causing a validation error
	Status  int    // Optional: HTTP status for remote errors
	Cause   error  // Optional: underlying transport or decode error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the category and the cause, so errors.Is matches the
// sentinel and errors.As can still reach e.g. a *url.Error underneath.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// Unauthorized reports a missing or rejected bearer token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
		Status:  http.StatusNotFound,
	}
}

// Remote reports a non-2xx API response. message is shown to the user as-is,
// so callers pass the server's own text when there is one.
func Remote(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &AppError{
		Err:     ErrRemote,
		Message: message,
		Status:  status,
	}
}

// Network reports a transport failure: DNS, refused connection, timeout, a
// body cut short. These are always worth retrying by hand.
func Network(cause error) *AppError {
	return &AppError{
		Err:     ErrNetwork,
		Message: "could not reach the SnipCity server, please try again",
		Cause:   cause,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// SessionStore reports a failure reading the local session.
// It is not a network problem and retrying the request will not help.
func SessionStore(cause error) *AppError {
	return &AppError{
		Err:     ErrSession,
		Message: "could not read the local session store",
		Cause:   cause,
	}
}

// StatusOf returns the HTTP status attached to err, or 0.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}
