// Package hybrid deploys proxy applications to customer-hosted runtimes
// through the hybrid Runtime Manager API.
package hybrid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"platform-hq/proxydeploy/pkg/platform"
)

// Backend is the backend name used in error mapping and metrics.
const Backend = "hybrid"

// Every hybrid call is scoped to the session's organization and
// environment through headers.
const (
	environmentHeader  = "X-ANYPNT-ENV-ID"
	organizationHeader = "X-ANYPNT-ORG-ID"
)

// Client is the raw hybrid Runtime Manager REST client.
type Client struct {
	call *platform.Client
}

// NewClient creates a hybrid client on top of the shared call wrapper.
func NewClient(call *platform.Client) *Client {
	return &Client{call: call}
}

func sessionScope(s platform.Session) http.Header {
	return http.Header{
		environmentHeader:  []string{s.EnvironmentID},
		organizationHeader: []string{s.OrganizationID},
	}
}

// envelope is the hybrid API's response wrapper.
type envelope[T any] struct {
	Data T `json:"data"`
}

// GetApplication fetches an application by id.
func (c *Client) GetApplication(ctx context.Context, s platform.Session, applicationID string) (*Application, error) {
	var resp envelope[Application]
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/v1/applications/%s", applicationID),
		Header: sessionScope(s),
	}, &resp)
	if err != nil {
		var notFound *platform.NotFoundError
		if errors.As(err, &notFound) {
			return nil, &platform.NotFoundError{Backend: Backend, Resource: fmt.Sprintf("hybrid application %s", applicationID)}
		}
		return nil, err
	}
	return &resp.Data, nil
}

// ApplicationsByQuery lists the applications with the given name on the
// given target.
func (c *Client) ApplicationsByQuery(ctx context.Context, s platform.Session, name, targetID string) ([]Application, error) {
	var resp envelope[[]Application]
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodGet,
		Path:   "/api/v1/applications",
		Query:  url.Values{"artifactName": []string{name}, "targetId": []string{targetID}},
		Header: sessionScope(s),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateApplication creates an application on the target from the proxy
// artifact.
func (c *Client) CreateApplication(ctx context.Context, s platform.Session, name, targetID string, artifact []byte) (*Application, error) {
	var resp envelope[Application]
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodPost,
		Path:   "/api/v1/applications",
		Header: sessionScope(s),
		Upload: &platform.Upload{
			Fields:    map[string]string{"artifactName": name, "targetId": targetID},
			FileField: "file",
			FileName:  fmt.Sprintf("%s.jar", name),
			Content:   bytes.NewReader(artifact),
		},
	}, &resp)
	if err != nil {
		var conflict *platform.ConflictError
		if errors.As(err, &conflict) {
			return nil, &EntityConsistencyError{ApplicationName: name, TargetID: targetID}
		}
		return nil, err
	}
	return &resp.Data, nil
}

// UpdateApplication replaces an existing application's artifact.
func (c *Client) UpdateApplication(ctx context.Context, s platform.Session, applicationID, name string, artifact []byte) (*Application, error) {
	var resp envelope[Application]
	err := c.call.DoJSON(ctx, s.Token, platform.Call{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/api/v1/applications/%s", applicationID),
		Header: sessionScope(s),
		Upload: &platform.Upload{
			FileField: "file",
			FileName:  fmt.Sprintf("%s.jar", name),
			Content:   bytes.NewReader(artifact),
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
