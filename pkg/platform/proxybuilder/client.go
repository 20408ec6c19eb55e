// Package proxybuilder is the client for the proxy builder service, which
// assembles deployable proxy artifacts from a build request.
package proxybuilder

import (
	"context"
	"net/http"

	"platform-hq/proxydeploy/pkg/platform"
)

// Backend is the backend name used in error mapping and metrics.
const Backend = "proxy-builder"

// BuildRequest describes the proxy artifact to assemble.
type BuildRequest struct {
	// ConfigurationProperties parameterize the template, flattened to
	// dotted keys (api.id, proxy.path, implementation.host, ...).
	ConfigurationProperties map[string]any `json:"configurationProperties"`

	// APIDefinition carries the API specification asset coordinates for
	// spec-driven proxies, omitted otherwise.
	APIDefinition *AssetCoordinates `json:"apiDefinition,omitempty"`

	// Template is the proxy template to instantiate.
	Template AssetCoordinates `json:"template"`
}

// AssetCoordinates is a full exchange asset reference.
type AssetCoordinates struct {
	GroupID      string `json:"groupId"`
	AssetID      string `json:"assetId"`
	AssetVersion string `json:"assetVersion"`
}

// Client talks to the proxy builder.
type Client struct {
	call *platform.Client
}

// New creates a proxy builder client on top of the shared call wrapper.
func New(call *platform.Client) *Client {
	return &Client{call: call}
}

// BuildProxy requests a proxy build and returns the artifact bytes.
func (c *Client) BuildProxy(ctx context.Context, s platform.Session, req BuildRequest) ([]byte, error) {
	return c.call.Do(ctx, s.Token, platform.Call{
		Method: http.MethodPost,
		Path:   "/proxies",
		Body:   req,
	})
}
