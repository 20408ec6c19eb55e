package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"platform-hq/proxydeploy/pkg/deployment"
	"platform-hq/proxydeploy/pkg/platform"
	"platform-hq/proxydeploy/pkg/platform/apimanager"
	"platform-hq/proxydeploy/pkg/proxygen"
)

// apiSource fetches environment API descriptors.
type apiSource interface {
	GetEnvironmentAPI(ctx context.Context, s platform.Session, environmentAPIID int) (*apimanager.EnvironmentAPI, error)
}

// generator builds proxy artifacts.
type generator interface {
	Generate(ctx context.Context, s platform.Session, api *apimanager.EnvironmentAPI) (*proxygen.Artifact, error)
}

// Proxy serves GET /apis/{environmentAPIID}/proxy: the downloadable proxy
// artifact for a mule 4 API. Older APIs fall through to the pass-through
// redirect, which fetches the artifact from the previous generation
// service.
type Proxy struct {
	apis     apiSource
	proxies  generator
	fallback http.Handler
}

// NewProxy creates the proxy download handler.
func NewProxy(apis apiSource, proxies generator, fallback http.Handler) *Proxy {
	return &Proxy{apis: apis, proxies: proxies, fallback: fallback}
}

func (h *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	environmentAPIID, err := strconv.Atoi(r.PathValue("environmentAPIID"))
	if err != nil {
		writeError(w, &deployment.BadRequestError{Message: "invalid environment api id"})
		return
	}

	sess := sessionFrom(r)
	api, err := h.apis.GetEnvironmentAPI(r.Context(), sess, environmentAPIID)
	if err != nil {
		writeError(w, err)
		return
	}

	if api.Endpoint == nil || !api.Endpoint.MuleVersion4OrAbove {
		h.fallback.ServeHTTP(w, r)
		return
	}

	artifact, err := h.proxies.Generate(r.Context(), sess, api)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name+".jar"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Data)
}
