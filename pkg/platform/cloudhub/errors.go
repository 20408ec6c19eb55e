package cloudhub

import (
	"fmt"
	"net/http"
)

// DeleteTimeoutError is raised when a deleted application is still visible
// after the full confirmation poll budget. It is the one manufactured
// terminal error in the deletion flow; every other poll failure propagates
// as the upstream error.
type DeleteTimeoutError struct {
	ApplicationName string
	EnvironmentID   string
}

// Error implements the error interface.
func (e *DeleteTimeoutError) Error() string {
	return fmt.Sprintf("application %q cannot be deleted from environment %q (timeout)", e.ApplicationName, e.EnvironmentID)
}

// HTTPStatus returns the status this error maps to on the API surface.
func (e *DeleteTimeoutError) HTTPStatus() int { return http.StatusConflict }
