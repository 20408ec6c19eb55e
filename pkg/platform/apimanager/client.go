// Package apimanager is the client for the API Manager backend: environment
// API descriptors, proxy deployment entities and environment listings.
package apimanager

import (
	"context"
	"fmt"
	"net/http"

	"platform-hq/proxydeploy/pkg/config"
	"platform-hq/proxydeploy/pkg/platform"
)

// Backend is the backend name used in error mapping and metrics.
const Backend = "api-manager"

// Client talks to the API Manager.
type Client struct {
	call  *platform.Client
	paths config.APIManagerConfig
}

// New creates an API Manager client on top of the shared call wrapper.
func New(call *platform.Client, cfg config.APIManagerConfig) *Client {
	return &Client{call: call, paths: cfg}
}

// GetEnvironmentAPI fetches the environment API descriptor by id.
func (c *Client) GetEnvironmentAPI(ctx context.Context, s platform.Session, environmentAPIID int) (*EnvironmentAPI, error) {
	var api EnvironmentAPI
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodGet,
		Path: fmt.Sprintf("%s/organizations/%s/environments/%s/apis/%d",
			c.paths.APIV1Path, s.OrganizationID, s.EnvironmentID, environmentAPIID),
	}, &api)
	if err != nil {
		return nil, err
	}
	return &api, nil
}

// CreateProxyDeployment records a new proxy deployment entity and returns
// the entity as the API Manager stored it.
func (c *Client) CreateProxyDeployment(ctx context.Context, s platform.Session, environmentAPIID int, draft *ProxyDeployment) (*ProxyDeployment, error) {
	var created ProxyDeployment
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodPost,
		Path: fmt.Sprintf("%s/organizations/%s/environments/%s/apis/%d/deployments/external",
			c.paths.ProxiesXAPIPath, s.OrganizationID, s.EnvironmentID, environmentAPIID),
		Body: draft,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProxyDeployment updates an existing proxy deployment entity and
// returns the stored result.
func (c *Client) UpdateProxyDeployment(ctx context.Context, s platform.Session, environmentAPIID int, deployment *ProxyDeployment) (*ProxyDeployment, error) {
	var updated ProxyDeployment
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodPatch,
		Path: fmt.Sprintf("%s/organizations/%s/environments/%s/apis/%d/deployments/external/%s",
			c.paths.ProxiesXAPIPath, s.OrganizationID, s.EnvironmentID, environmentAPIID, deployment.ID),
		Body: deployment,
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetAllEnvironments lists every environment of the session's organization.
func (c *Client) GetAllEnvironments(ctx context.Context, s platform.Session) (*EnvironmentList, error) {
	var list EnvironmentList
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/organizations/%s/environments", c.paths.RepositoryV2Path, s.OrganizationID),
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}
