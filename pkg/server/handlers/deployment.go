package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/Masterminds/semver/v3"

	"platform-hq/proxydeploy/pkg/deployment"
	"platform-hq/proxydeploy/pkg/gatewayversion"
	"platform-hq/proxydeploy/pkg/platform"
	"platform-hq/proxydeploy/pkg/platform/apimanager"
	"platform-hq/proxydeploy/pkg/server/middleware"
)

// orchestrator is the deployment service surface the handlers need.
type orchestrator interface {
	Create(ctx context.Context, s platform.Session, draft *apimanager.ProxyDeployment) (*apimanager.ProxyDeployment, error)
	Update(ctx context.Context, s platform.Session, deployment *apimanager.ProxyDeployment) (*apimanager.ProxyDeployment, error)
}

// Deployment serves the proxy deployment endpoints. Requests whose gateway
// version predates the mule 4 threshold are not ours to handle; they fall
// through to the pass-through redirect, which the older deployment service
// behind the API Manager still serves.
type Deployment struct {
	service   orchestrator
	threshold *semver.Constraints
	fallback  http.Handler
}

// NewDeployment creates the deployment handlers. threshold is the semver
// range a request's gatewayVersion must satisfy to be handled here.
func NewDeployment(service orchestrator, threshold *semver.Constraints, fallback http.Handler) *Deployment {
	return &Deployment{service: service, threshold: threshold, fallback: fallback}
}

// Create handles POST /deployments.
func (h *Deployment) Create(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, http.StatusCreated, h.service.Create)
}

// Replace handles PUT /deployments/{proxyDeploymentID}.
func (h *Deployment) Replace(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, http.StatusCreated, h.service.Update)
}

// Update handles PATCH /deployments/{proxyDeploymentID}.
func (h *Deployment) Update(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, http.StatusOK, h.service.Update)
}

func (h *Deployment) handle(w http.ResponseWriter, r *http.Request, successStatus int, run func(context.Context, platform.Session, *apimanager.ProxyDeployment) (*apimanager.ProxyDeployment, error)) {
	body, raw, err := decodeDeployment(r)
	if err != nil {
		writeError(w, &deployment.BadRequestError{Message: err.Error()})
		return
	}

	if !h.handles(body.GatewayVersion) {
		// Replay the consumed body for the pass-through.
		r.Body = io.NopCloser(bytes.NewReader(raw))
		h.fallback.ServeHTTP(w, r)
		return
	}

	environmentAPIID, err := strconv.Atoi(r.PathValue("environmentAPIID"))
	if err != nil {
		writeError(w, &deployment.BadRequestError{Message: "invalid environment api id"})
		return
	}
	// The URL names the API being deployed; a mismatching body does not
	// get to deploy a different one.
	body.EnvironmentAPIID = environmentAPIID

	sess := sessionFrom(r)
	result, err := run(r.Context(), sess, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, successStatus, result)
}

// handles reports whether the request's gateway version satisfies the
// mule 4 threshold. Unparseable versions do not; they belong to the older
// service.
func (h *Deployment) handles(version string) bool {
	v, err := semver.NewVersion(gatewayversion.Normalize(version))
	if err != nil {
		return false
	}
	return h.threshold.Check(v)
}

func decodeDeployment(r *http.Request) (*apimanager.ProxyDeployment, []byte, error) {
	defer r.Body.Close()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, nil, err
	}
	var body apimanager.ProxyDeployment
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, nil, err
	}
	return &body, raw, nil
}

// sessionFrom builds the platform session from the authenticated token and
// the organization and environment named in the URL.
func sessionFrom(r *http.Request) platform.Session {
	return platform.Session{
		Token:          middleware.Token(r.Context()),
		OrganizationID: r.PathValue("organizationID"),
		EnvironmentID:  r.PathValue("environmentID"),
	}
}
