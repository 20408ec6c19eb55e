package deployment

import "net/http"

// BadRequestError rejects a deployment request before any backend work
// starts, for example when the target API's endpoint cannot host a mule 4
// proxy.
type BadRequestError struct {
	Message string
}

// Error implements the error interface.
func (e *BadRequestError) Error() string { return e.Message }

// HTTPStatus returns the status this error maps to on the API surface.
func (e *BadRequestError) HTTPStatus() int { return http.StatusBadRequest }
