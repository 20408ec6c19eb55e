package hybrid

import (
	"fmt"
	"net/http"
)

// EntityConsistencyError is raised when creating an application collides
// with one that already exists on the same target. The lookup that runs
// before creation makes this a concurrent-writer signal rather than a
// normal duplicate.
type EntityConsistencyError struct {
	ApplicationName string
	TargetID        string
}

// Error implements the error interface.
func (e *EntityConsistencyError) Error() string {
	return fmt.Sprintf("application %q already exists on target %q", e.ApplicationName, e.TargetID)
}

// HTTPStatus returns the status this error maps to on the API surface.
func (e *EntityConsistencyError) HTTPStatus() int { return http.StatusConflict }
