// Package handlers contains the HTTP handlers of the proxy deployment API:
// deployment orchestration, proxy artifact download and the pass-through
// redirect to the API Manager.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"platform-hq/proxydeploy/pkg/deployment"
	"platform-hq/proxydeploy/pkg/platform"
	"platform-hq/proxydeploy/pkg/platform/cloudhub"
	"platform-hq/proxydeploy/pkg/platform/hybrid"
)

// writeError renders an error as a JSON body with the status the error
// maps to. Errors outside the known set are a 500 with no detail leaked.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var statuser platform.HTTPStatuser
	if errors.As(err, &statuser) {
		status = statuser.HTTPStatus()
		message = err.Error()
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}

	writeJSON(w, status, map[string]string{
		"name":    errorName(err),
		"message": message,
	})
}

func errorName(err error) string {
	switch {
	case errors.As(err, new(*deployment.BadRequestError)):
		return "BadRequestError"
	case errors.As(err, new(*platform.TimeoutError)):
		return "TimeoutError"
	case errors.As(err, new(*platform.UnauthorizedError)):
		return "UnauthorizedError"
	case errors.As(err, new(*platform.ForbiddenError)):
		return "ForbiddenError"
	case errors.As(err, new(*platform.NotFoundError)):
		return "NotFoundError"
	case errors.As(err, new(*cloudhub.DeleteTimeoutError)):
		return "DeleteTimeoutError"
	case errors.As(err, new(*hybrid.EntityConsistencyError)):
		return "EntityConsistencyError"
	case errors.As(err, new(*platform.ConflictError)):
		return "ConflictError"
	case errors.As(err, new(*platform.ServiceError)):
		return "ServiceError"
	}
	return "InternalError"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
