package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path,
// applies defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the convention
// PROXYDEPLOY_SECTION_FIELD (e.g. PROXYDEPLOY_SERVER_LISTEN_ADDRESS) and
// always take precedence over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString("PROXYDEPLOY_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	overrideDuration("PROXYDEPLOY_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	overrideDuration("PROXYDEPLOY_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	overrideDuration("PROXYDEPLOY_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	overrideInt("PROXYDEPLOY_SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)

	overrideString("PROXYDEPLOY_AUTH_SERVICE_TOKEN", &cfg.Auth.ServiceToken)

	overrideBackend("API_MANAGER", &cfg.Platform.APIManager.BackendConfig)
	overrideBackend("CLOUDHUB", &cfg.Platform.CloudHub.BackendConfig)
	overrideBackend("HYBRID", &cfg.Platform.Hybrid)
	overrideBackend("CORE_SERVICES", &cfg.Platform.CoreServices)
	overrideBackend("PROXY_BUILDER", &cfg.Platform.ProxyBuilder.BackendConfig)

	overrideString("PROXYDEPLOY_CLOUDHUB_PLATFORM_BASE_URI", &cfg.Platform.CloudHub.PlatformBaseURI)
	overrideString("PROXYDEPLOY_CLOUDHUB_ANALYTICS_INGEST_URI", &cfg.Platform.CloudHub.AnalyticsIngestURI)
	overrideString("PROXYDEPLOY_CLOUDHUB_SUPPORTED_RUNTIME_VERSIONS", &cfg.Platform.CloudHub.SupportedRuntimeVersions)

	overrideString("PROXYDEPLOY_CACHE_BACKEND", &cfg.Cache.Backend)
	overrideString("PROXYDEPLOY_CACHE_DB_PATH", &cfg.Cache.DBPath)

	overrideString("PROXYDEPLOY_LOG_LEVEL", &cfg.Telemetry.Logging.Level)
	overrideString("PROXYDEPLOY_LOG_FORMAT", &cfg.Telemetry.Logging.Format)
}

func overrideBackend(name string, b *BackendConfig) {
	overrideString("PROXYDEPLOY_"+name+"_BASE_URL", &b.BaseURL)
	overrideDuration("PROXYDEPLOY_"+name+"_TIMEOUT", &b.Timeout)
}

func overrideString(env string, dst *string) {
	if val := os.Getenv(env); val != "" {
		*dst = val
	}
}

func overrideDuration(env string, dst *time.Duration) {
	if val := os.Getenv(env); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func overrideInt(env string, dst *int) {
	if val := os.Getenv(env); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

// LoadCatalogFile reads a gateway version catalog from a YAML file.
func LoadCatalogFile(path string) ([]GatewayVersionEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %q: %w", path, err)
	}

	var entries []GatewayVersionEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %q: %w", path, err)
	}

	return entries, nil
}
