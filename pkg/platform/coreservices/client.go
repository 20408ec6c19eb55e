// Package coreservices resolves platform client credentials from the Core
// Services credential store. Resolution is a two-step walk: the environment
// or organization record yields an internal client id, which yields the
// credential pair.
package coreservices

import (
	"context"
	"fmt"
	"net/http"

	"platform-hq/proxydeploy/pkg/platform"
)

// Backend is the backend name used in error mapping and metrics.
const Backend = "core-services"

// Credentials is a platform client credential pair, injected into deployed
// applications so the gateway can call home.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Client talks to Core Services. Calls run under the configured service
// token rather than the caller's token.
type Client struct {
	call         *platform.Client
	serviceToken string
}

// New creates a Core Services client.
func New(call *platform.Client, serviceToken string) *Client {
	return &Client{call: call, serviceToken: serviceToken}
}

type clientRef struct {
	ClientID string `json:"clientId"`
}

// EnvironmentCredentials resolves the credentials of the session's
// environment.
func (c *Client) EnvironmentCredentials(ctx context.Context, s platform.Session) (*Credentials, error) {
	var env clientRef
	err := c.call.DoJSON(ctx, c.serviceToken, platform.Call{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/environments/%s", s.EnvironmentID),
	}, &env)
	if err != nil {
		return nil, err
	}
	return c.clientCredentials(ctx, env.ClientID)
}

// OrganizationCredentials resolves the credentials of the session's
// organization.
func (c *Client) OrganizationCredentials(ctx context.Context, s platform.Session) (*Credentials, error) {
	var org clientRef
	err := c.call.DoJSON(ctx, c.serviceToken, platform.Call{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/organizations/%s", s.OrganizationID),
	}, &org)
	if err != nil {
		return nil, err
	}
	return c.clientCredentials(ctx, org.ClientID)
}

// CredentialsFor resolves environment credentials when the session carries
// an environment id, organization credentials otherwise. Environments got
// their own credentials with the environments release; older organizations
// still use the organization pair.
func (c *Client) CredentialsFor(ctx context.Context, s platform.Session) (*Credentials, error) {
	if s.EnvironmentID != "" {
		return c.EnvironmentCredentials(ctx, s)
	}
	return c.OrganizationCredentials(ctx, s)
}

func (c *Client) clientCredentials(ctx context.Context, clientID string) (*Credentials, error) {
	var creds Credentials
	err := c.call.DoJSON(ctx, c.serviceToken, platform.Call{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/clients/%s", clientID),
	}, &creds)
	if err != nil {
		return nil, err
	}
	return &creds, nil
}
