package config

import "time"

// Config is the root configuration structure for the proxy deployment gateway.
// It contains the HTTP server settings, the platform backend endpoints, the
// gateway version catalog, the optional cache, and telemetry settings.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and graceful shutdown behavior.
	Server ServerConfig `yaml:"server"`

	// Auth contains service authentication configuration.
	Auth AuthConfig `yaml:"auth"`

	// Platform contains the connection settings for every backend platform
	// service this gateway talks to.
	Platform PlatformConfig `yaml:"platform"`

	// GatewayVersions configures the static gateway version catalog.
	GatewayVersions GatewayVersionsConfig `yaml:"gateway_versions"`

	// Cache configures the optional response cache used by cached platform
	// calls.
	Cache CacheConfig `yaml:"cache"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "0.0.0.0:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Deployment requests fan out to several backends, so this needs headroom
	// above the per-backend timeouts.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header sizes.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// AuthConfig contains service authentication configuration.
type AuthConfig struct {
	// ServiceToken is the token this service uses for its own calls to
	// Core Services (credential resolution does not run with the caller's
	// token).
	ServiceToken string `yaml:"service_token"`

	// AnonymousPaths lists request paths that bypass bearer authentication.
	// Default: ["/status/echo", "/status/version"]
	AnonymousPaths []string `yaml:"anonymous_paths"`
}

// PlatformConfig groups the backend platform services.
type PlatformConfig struct {
	// APIManager is the API Manager service (environment APIs and proxy
	// deployment entities).
	APIManager APIManagerConfig `yaml:"api_manager"`

	// CloudHub is the hosted deployment target.
	CloudHub CloudHubConfig `yaml:"cloudhub"`

	// Hybrid is the on-premise runtime manager.
	Hybrid BackendConfig `yaml:"hybrid"`

	// CoreServices is the credential store.
	CoreServices BackendConfig `yaml:"core_services"`

	// ProxyBuilder is the proxy artifact generation service.
	ProxyBuilder ProxyBuilderConfig `yaml:"proxy_builder"`
}

// BackendConfig contains the connection settings shared by every backend.
type BackendConfig struct {
	// BaseURL is the base URL of the backend service.
	BaseURL string `yaml:"base_url"`

	// Timeout is the fixed per-call timeout for this backend. A timeout
	// surfaces as a gateway timeout error; there is no automatic retry.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// APIManagerConfig contains API Manager connection settings and the path
// prefixes of its API surfaces.
type APIManagerConfig struct {
	BackendConfig `yaml:",inline"`

	// APIV1Path is the path prefix of the API Manager v1 API.
	// Default: "/apimanager/api/v1"
	APIV1Path string `yaml:"api_v1_path"`

	// ProxiesXAPIPath is the path prefix of the proxies experience API, also
	// the target of the generic redirect layer.
	// Default: "/proxies/xapi/v1"
	ProxiesXAPIPath string `yaml:"proxies_xapi_path"`

	// RepositoryV2Path is the path prefix of the repository v2 API used for
	// environment listing.
	// Default: "/apiplatform/repository/v2"
	RepositoryV2Path string `yaml:"repository_v2_path"`
}

// CloudHubConfig contains CloudHub connection settings plus the deployment
// parameters injected into every deployed application.
type CloudHubConfig struct {
	BackendConfig `yaml:",inline"`

	// SupportedRuntimeVersions is the semver range a runtime image must
	// satisfy to be eligible for proxy deployments.
	// Default: ">=4.0.0"
	SupportedRuntimeVersions string `yaml:"supported_runtime_versions"`

	// WorkerType is the CloudHub worker size for created applications.
	// Default: "Micro"
	WorkerType string `yaml:"worker_type"`

	// PlatformBaseURI is injected into application properties as the
	// platform base URI the deployed gateway reports to.
	PlatformBaseURI string `yaml:"platform_base_uri"`

	// AnalyticsIngestURI is injected into application properties as the
	// analytics ingest endpoint.
	AnalyticsIngestURI string `yaml:"analytics_ingest_uri"`
}

// ProxyBuilderConfig contains proxy builder connection settings and template
// versions per endpoint type.
type ProxyBuilderConfig struct {
	BackendConfig `yaml:",inline"`

	// TemplateVersions maps endpoint types (HTTP, HTTPS, RAML, WSDL) to the
	// proxy template asset version used when requesting a build.
	TemplateVersions map[string]string `yaml:"template_versions"`

	// DefaultResponseTimeout is the proxy response timeout (in milliseconds)
	// used when an endpoint does not declare one.
	// Default: 10000
	DefaultResponseTimeout int `yaml:"default_response_timeout"`
}

// GatewayVersionsConfig configures the gateway version catalog.
type GatewayVersionsConfig struct {
	// CatalogFile optionally points to a YAML file overriding the built-in
	// catalog. When empty the built-in catalog is used.
	CatalogFile string `yaml:"catalog_file"`

	// MuleVersionThreshold is the semver range a request's gateway version
	// must satisfy to be handled by this service rather than redirected.
	// Default: ">=4"
	MuleVersionThreshold string `yaml:"mule_version_threshold"`
}

// GatewayVersionEntry is one catalog entry as read from a catalog file.
type GatewayVersionEntry struct {
	// ID is the canonical version id (e.g. "4.0.0").
	ID string `yaml:"id"`

	// Label is the human readable version label (e.g. "4.0.x").
	Label string `yaml:"label"`

	// ProxyFileNameSuffix is appended to generated proxy file names.
	ProxyFileNameSuffix string `yaml:"proxy_file_name_suffix"`

	// Condition is the semver range a requested version must satisfy to
	// resolve to this entry.
	Condition string `yaml:"condition"`

	// BackwardsCompatibleWith lists catalog ids this version can replace.
	BackwardsCompatibleWith []string `yaml:"backwards_compatible_with"`

	// RAMLVersionSupported is the semver range of supported RAML versions.
	RAMLVersionSupported string `yaml:"raml_version_supported"`
}

// CacheConfig configures the optional platform response cache.
type CacheConfig struct {
	// Enabled controls whether cached platform calls consult the cache at
	// all. When disabled every cached call degrades to a plain call.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the cache backend: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// DBPath is the SQLite database path when Backend is "sqlite".
	// Default: "./proxydeploy-cache.db"
	DBPath string `yaml:"db_path"`

	// MaxEntries bounds the memory backend; oldest entries are evicted.
	// Default: 10000
	MaxEntries int `yaml:"max_entries"`

	// Retention is how long entries are kept before the janitor removes
	// them. Zero disables the sweep.
	// Default: 0 (no sweep)
	Retention time.Duration `yaml:"retention"`

	// SweepSchedule is the cron expression for the retention sweep.
	// Only used when Retention is non-zero.
	// Default: "0 * * * *" (hourly)
	SweepSchedule string `yaml:"sweep_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the log output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "proxydeploy"
	Namespace string `yaml:"namespace"`

	// DurationBuckets are the histogram buckets for backend call latency.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}
