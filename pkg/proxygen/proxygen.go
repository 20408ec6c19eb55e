// Package proxygen turns an environment API descriptor into a deployable
// proxy artifact: it derives the proxy's configuration properties from the
// API's endpoint, requests a build from the proxy builder and names the
// result.
package proxygen

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"platform-hq/proxydeploy/pkg/config"
	"platform-hq/proxydeploy/pkg/platform"
	"platform-hq/proxydeploy/pkg/platform/apimanager"
	"platform-hq/proxydeploy/pkg/platform/proxybuilder"
)

// Endpoint types with dedicated proxy templates.
const (
	EndpointHTTP  = "http"
	EndpointHTTPS = "https"
	EndpointRAML  = "raml"
	EndpointWSDL  = "wsdl"
)

// Artifact is a built proxy ready for deployment.
type Artifact struct {
	// Name is the proxy's application name, derived from the API's
	// identity.
	Name string

	// Data is the artifact content.
	Data []byte
}

// builder requests proxy builds. Satisfied by the proxy builder client.
type builder interface {
	BuildProxy(ctx context.Context, s platform.Session, req proxybuilder.BuildRequest) ([]byte, error)
}

// Generator builds proxy artifacts for environment APIs.
type Generator struct {
	builder builder
	cfg     config.ProxyBuilderConfig
	logger  *slog.Logger
}

// New creates a Generator.
func New(b builder, cfg config.ProxyBuilderConfig) *Generator {
	return &Generator{
		builder: b,
		cfg:     cfg,
		logger:  slog.Default().With("component", "proxygen"),
	}
}

// Generate builds the proxy artifact for the environment API.
func (g *Generator) Generate(ctx context.Context, s platform.Session, api *apimanager.EnvironmentAPI) (*Artifact, error) {
	req, err := g.buildRequest(api)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("building proxy",
		"endpoint_type", api.Endpoint.Type,
		"group_id", api.GroupID,
		"asset_id", api.AssetID,
		"asset_version", api.AssetVersion)

	data, err := g.builder.BuildProxy(ctx, s, req)
	if err != nil {
		return nil, err
	}
	return &Artifact{Name: ProxyName(api), Data: data}, nil
}

// buildRequest assembles the build request: flattened configuration
// properties, the API definition for spec-driven proxies and the template
// coordinates matching the endpoint type.
func (g *Generator) buildRequest(api *apimanager.EnvironmentAPI) (proxybuilder.BuildRequest, error) {
	if api.Endpoint == nil {
		return proxybuilder.BuildRequest{}, fmt.Errorf("environment api %d has no endpoint", api.ID)
	}

	properties, err := g.configProperties(api)
	if err != nil {
		return proxybuilder.BuildRequest{}, err
	}

	req := proxybuilder.BuildRequest{
		ConfigurationProperties: properties,
	}

	if api.Endpoint.Type == EndpointRAML {
		req.APIDefinition = &proxybuilder.AssetCoordinates{
			GroupID:      api.GroupID,
			AssetID:      api.AssetID,
			AssetVersion: api.AssetVersion,
		}
	}

	templateID := strings.ToUpper(api.Endpoint.Type)
	req.Template = proxybuilder.AssetCoordinates{
		GroupID:      api.GroupID,
		AssetID:      templateID,
		AssetVersion: g.cfg.TemplateVersions[templateID],
	}
	return req, nil
}

// configProperties derives the proxy's configuration, keyed the way the
// proxy templates expect: api.id, proxy.path/port/responseTimeout, then
// implementation.host/port/path for http-family proxies or the service
// block plus the wsdl location for wsdl proxies.
func (g *Generator) configProperties(api *apimanager.EnvironmentAPI) (map[string]any, error) {
	endpoint := api.Endpoint

	implementationURI := endpoint.URI
	if endpoint.Type == EndpointWSDL && !strings.Contains(strings.ToLower(implementationURI), "?wsdl") {
		implementationURI += "?wsdl"
	}

	implementation, err := url.Parse(implementationURI)
	if err != nil {
		return nil, fmt.Errorf("environment api %d: unparseable endpoint uri: %w", api.ID, err)
	}

	implementationPort := implementation.Port()
	if implementationPort == "" {
		if implementation.Scheme == "https" {
			implementationPort = "443"
		} else {
			implementationPort = "80"
		}
	}

	proxyPath := ""
	proxyPort := ""
	if endpoint.ProxyURI != "" {
		proxyURL, err := url.Parse(endpoint.ProxyURI)
		if err != nil {
			return nil, fmt.Errorf("environment api %d: unparseable proxy uri: %w", api.ID, err)
		}
		proxyPath = proxyURL.Path
		proxyPort = proxyURL.Port()
	}
	switch {
	case strings.HasSuffix(proxyPath, "/"):
		proxyPath += "*"
	case !strings.HasSuffix(proxyPath, "*"):
		proxyPath += "/*"
	}

	responseTimeout := endpoint.ResponseTimeout
	if responseTimeout == 0 {
		responseTimeout = g.cfg.DefaultResponseTimeout
	}

	properties := map[string]any{
		"api.id":                api.ID,
		"proxy.path":            proxyPath,
		"proxy.port":            proxyPort,
		"proxy.responseTimeout": responseTimeout,
	}

	if endpoint.Type == EndpointWSDL {
		var wsdlConfig apimanager.WSDLConfig
		if endpoint.WSDLConfig != nil {
			wsdlConfig = *endpoint.WSDLConfig
		}
		properties["service.name"] = wsdlConfig.Name
		properties["service.namespace"] = wsdlConfig.Namespace
		properties["service.port"] = wsdlConfig.Port
		properties["wsdl"] = implementationURI
	} else {
		implementationPath := implementation.Path
		if implementation.RawQuery != "" {
			implementationPath += "?" + implementation.RawQuery
		}
		properties["implementation.host"] = implementation.Hostname()
		properties["implementation.port"] = implementationPort
		properties["implementation.path"] = implementationPath
	}
	return properties, nil
}

var nonWordRuns = regexp.MustCompile(`[^\w]+`)

// ProxyName derives the proxy application name from the API's identity:
// asset id, product version and instance label (or the autodiscovery
// instance name when no label is set), each sanitized and joined with "-".
func ProxyName(api *apimanager.EnvironmentAPI) string {
	label := api.InstanceLabel
	if label == "" {
		label = api.AutodiscoveryInstanceName
	}

	parts := []string{api.AssetID, api.ProductVersion, label}
	for i, part := range parts {
		parts[i] = sanitize(part)
	}
	return strings.Join(parts, "-")
}

// sanitize collapses every run of non-word characters into one underscore,
// dropping leading and trailing runs.
func sanitize(s string) string {
	spaced := strings.TrimSpace(nonWordRuns.ReplaceAllString(s, " "))
	return strings.ReplaceAll(spaced, " ", "_")
}
