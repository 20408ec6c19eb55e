package platform

import (
	"fmt"
	"net/http"
	"time"
)

// The call wrapper maps every failed backend call to exactly one of the
// error types below. Downstream code branches with errors.As on the type,
// never on raw status codes.

// TimeoutError indicates the backend did not answer within the configured
// per-backend timeout. There is no automatic retry.
type TimeoutError struct {
	// Backend is the name of the backend that timed out.
	Backend string

	// Timeout is the configured timeout that elapsed.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("backend %q did not respond within %s", e.Backend, e.Timeout)
}

// HTTPStatus returns the status this error maps to on the API surface.
func (e *TimeoutError) HTTPStatus() int { return http.StatusGatewayTimeout }

// UnauthorizedError indicates the backend rejected the call with 401.
type UnauthorizedError struct {
	Backend string
}

// Error implements the error interface.
func (e *UnauthorizedError) Error() string {
	if e.Backend == "" {
		return "unauthorized"
	}
	return fmt.Sprintf("backend %q rejected the credentials", e.Backend)
}

// HTTPStatus returns the status this error maps to on the API surface.
func (e *UnauthorizedError) HTTPStatus() int { return http.StatusUnauthorized }

// ForbiddenError indicates the backend rejected the call with 403.
type ForbiddenError struct {
	Backend string
}

// Error implements the error interface.
func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("backend %q denied access", e.Backend)
}

// HTTPStatus returns the status this error maps to on the API surface.
func (e *ForbiddenError) HTTPStatus() int { return http.StatusForbidden }

// NotFoundError indicates the backend answered 404. Resource optionally
// names what was missing; callers re-raising the error fill it in.
type NotFoundError struct {
	Backend  string
	Resource string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("not found: %s", e.Resource)
	}
	return fmt.Sprintf("backend %q returned not found", e.Backend)
}

// HTTPStatus returns the status this error maps to on the API surface.
func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

// ConflictError indicates the backend answered 409, typically because an
// application with the requested name already exists.
type ConflictError struct {
	Backend string
	Message string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %q reported a conflict: %s", e.Backend, e.Message)
	}
	return fmt.Sprintf("backend %q reported a conflict", e.Backend)
}

// HTTPStatus returns the status this error maps to on the API surface.
func (e *ConflictError) HTTPStatus() int { return http.StatusConflict }

// ServiceError is the catch-all for uncategorized non-2xx responses. It
// carries the upstream status and the error body's name/message for
// diagnostics.
type ServiceError struct {
	// Backend is the name of the backend that failed.
	Backend string

	// StatusCode is the upstream HTTP status code.
	StatusCode int

	// Message is the upstream error body's name and message, when parseable.
	Message string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("error talking to %s: %s [code %d]", e.Backend, msg, e.StatusCode)
}

// HTTPStatus returns the status this error maps to on the API surface.
// Upstream status codes are preserved when plausible; everything else is
// reported as a bad gateway.
func (e *ServiceError) HTTPStatus() int {
	if e.StatusCode >= 400 && e.StatusCode < 600 {
		return e.StatusCode
	}
	return http.StatusBadGateway
}

// HTTPStatuser is implemented by errors that know the HTTP status code they
// should surface as.
type HTTPStatuser interface {
	HTTPStatus() int
}
