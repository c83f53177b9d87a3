// Package errs defines the error taxonomy shared by all services.
// Handlers map these to HTTP status codes; services wrap them with
// context via fmt.Errorf and %w.
package errs

import "errors"

var (
	// ErrNotFound marks a reference to unknown content, session or learner.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks a role mismatch on a role-gated operation.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated marks a missing, expired or unknown session token.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrAlreadyCompleted marks a second completion of a finished session.
	ErrAlreadyCompleted = errors.New("session already completed")

	// ErrInvalidInput marks missing or malformed required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageUnavailable wraps storage I/O failures. The core never
	// retries; retry policy belongs to the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// NotFound reports whether err is (or wraps) ErrNotFound.
func NotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Forbidden reports whether err is (or wraps) ErrForbidden.
func Forbidden(err error) bool { return errors.Is(err, ErrForbidden) }
