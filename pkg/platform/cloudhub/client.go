// Package cloudhub deploys proxy applications to the CloudHub platform:
// runtime version resolution, application upsert with conflict-driven
// recreation, artifact upload and startup.
package cloudhub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"platform-hq/proxydeploy/pkg/cache"
	"platform-hq/proxydeploy/pkg/platform"
)

// Backend is the backend name used in error mapping and metrics.
const Backend = "cloudhub"

// environmentHeader scopes a call to one environment.
const environmentHeader = "X-ANYPNT-ENV-ID"

// Client is the raw CloudHub REST client. Deployment flows live in
// Deployer; Client methods map one-to-one onto platform endpoints.
type Client struct {
	call  *platform.Client
	store platform.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithCache caches the runtime version listing, which changes rarely and
// is fetched on every deployment.
func WithCache(store platform.Cache) Option {
	return func(c *Client) { c.store = store }
}

// NewClient creates a CloudHub client on top of the shared call wrapper.
func NewClient(call *platform.Client, opts ...Option) *Client {
	c := &Client{call: call}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func environmentScope(environmentID string) http.Header {
	if environmentID == "" {
		return nil
	}
	return http.Header{environmentHeader: []string{environmentID}}
}

// GetApplication fetches an application by name. A missing application
// surfaces as a NotFoundError naming the domain.
func (c *Client) GetApplication(ctx context.Context, s platform.Session, environmentID, name string) (*Application, error) {
	var raw rawApplication
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/v2/applications/%s", name),
		Header: environmentScope(environmentID),
	}, &raw)
	if err != nil {
		var notFound *platform.NotFoundError
		if errors.As(err, &notFound) {
			return nil, &platform.NotFoundError{Backend: Backend, Resource: fmt.Sprintf("CloudHub application, domain: %s", name)}
		}
		return nil, err
	}
	return raw.toApplication(), nil
}

// DomainAvailability reports whether the given domain name is free.
func (c *Client) DomainAvailability(ctx context.Context, s platform.Session, name string) (bool, error) {
	var result struct {
		Available bool `json:"available"`
	}
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/applications/domains/%s", name),
	}, &result)
	if err != nil {
		return false, err
	}
	return result.Available, nil
}

// ListMuleVersions returns every runtime image the platform offers. The
// listing is cached per organization when a cache is configured.
func (c *Client) ListMuleVersions(ctx context.Context, s platform.Session) ([]MuleVersion, error) {
	body, err := c.call.DoCached(ctx, c.store, cache.Key(Backend, "mule-versions", s.OrganizationID), s.Token, platform.Call{
		Method: http.MethodGet,
		Path:   "/api/mule-versions",
	}, nil)
	if err != nil {
		return nil, err
	}

	var list struct {
		Data []MuleVersion `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &platform.ServiceError{Backend: Backend, Message: fmt.Sprintf("malformed mule versions listing: %v", err)}
	}
	return list.Data, nil
}

// CreateApplication creates an application in the given environment.
func (c *Client) CreateApplication(ctx context.Context, s platform.Session, environmentID string, spec applicationSpec) (*Application, error) {
	var raw rawApplication
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodPost,
		Path:   "/api/applications",
		Header: environmentScope(environmentID),
		Body:   spec,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return raw.toApplication(), nil
}

// UpdateApplication updates an application's runtime version and
// properties.
func (c *Client) UpdateApplication(ctx context.Context, s platform.Session, environmentID, name, muleVersion string, properties map[string]string) (*Application, error) {
	payload := struct {
		MuleVersion string            `json:"muleVersion"`
		Properties  map[string]string `json:"properties"`
	}{muleVersion, properties}

	var raw rawApplication
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/api/applications/%s", name),
		Header: environmentScope(environmentID),
		Body:   payload,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return raw.toApplication(), nil
}

// DeleteApplicationRaw issues the delete without confirming it took effect.
// Deployer.DeleteApplication wraps it with the confirmation poll.
func (c *Client) DeleteApplicationRaw(ctx context.Context, s platform.Session, environmentID, name string) error {
	_, err := c.call.Do(ctx, s.Token, platform.Call{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/api/applications/%s", name),
		Header: environmentScope(environmentID),
	})
	return err
}

// UploadArtifact uploads the proxy artifact as the application's deployment
// file.
func (c *Client) UploadArtifact(ctx context.Context, s platform.Session, environmentID, name string, artifact []byte) error {
	_, err := c.call.Do(ctx, s.Token, platform.Call{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/v2/applications/%s/files", name),
		Header: environmentScope(environmentID),
		Upload: &platform.Upload{
			FileField: "file",
			FileName:  fmt.Sprintf("%s-api-gateway.jar", name),
			Content:   bytes.NewReader(artifact),
		},
	})
	return err
}

// Start asks the platform to start the application. A 304 means the
// application is already running and counts as success.
func (c *Client) Start(ctx context.Context, s platform.Session, environmentID, name string) error {
	_, err := c.call.Do(ctx, s.Token, platform.Call{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/applications/%s/status", name),
		Header: environmentScope(environmentID),
		Body:   struct {
			Status string `json:"status"`
		}{"START"},
	})
	if err != nil {
		var svcErr *platform.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusNotModified {
			return nil
		}
		return err
	}
	return nil
}
