package config

import "time"

// ApplyDefaults fills in default values for any field not set in the
// configuration. It is called automatically by LoadConfig.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "0.0.0.0:8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = 1 << 20
	}

	// Auth defaults
	if cfg.Auth.AnonymousPaths == nil {
		cfg.Auth.AnonymousPaths = []string{"/status/echo", "/status/version"}
	}

	// Backend defaults
	applyBackendDefaults(&cfg.Platform.APIManager.BackendConfig)
	applyBackendDefaults(&cfg.Platform.CloudHub.BackendConfig)
	applyBackendDefaults(&cfg.Platform.Hybrid)
	applyBackendDefaults(&cfg.Platform.CoreServices)
	applyBackendDefaults(&cfg.Platform.ProxyBuilder.BackendConfig)

	if cfg.Platform.APIManager.APIV1Path == "" {
		cfg.Platform.APIManager.APIV1Path = "/apimanager/api/v1"
	}
	if cfg.Platform.APIManager.ProxiesXAPIPath == "" {
		cfg.Platform.APIManager.ProxiesXAPIPath = "/proxies/xapi/v1"
	}
	if cfg.Platform.APIManager.RepositoryV2Path == "" {
		cfg.Platform.APIManager.RepositoryV2Path = "/apiplatform/repository/v2"
	}

	if cfg.Platform.CloudHub.SupportedRuntimeVersions == "" {
		cfg.Platform.CloudHub.SupportedRuntimeVersions = ">=4.0.0"
	}
	if cfg.Platform.CloudHub.WorkerType == "" {
		cfg.Platform.CloudHub.WorkerType = "Micro"
	}

	if cfg.Platform.ProxyBuilder.TemplateVersions == nil {
		cfg.Platform.ProxyBuilder.TemplateVersions = map[string]string{
			"HTTP":  "1.0.0",
			"HTTPS": "1.0.0",
			"RAML":  "1.0.0",
			"WSDL":  "1.0.0",
		}
	}
	if cfg.Platform.ProxyBuilder.DefaultResponseTimeout == 0 {
		cfg.Platform.ProxyBuilder.DefaultResponseTimeout = 10000
	}

	// Gateway versions defaults
	if cfg.GatewayVersions.MuleVersionThreshold == "" {
		cfg.GatewayVersions.MuleVersionThreshold = ">=4"
	}

	// Cache defaults
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.DBPath == "" {
		cfg.Cache.DBPath = "./proxydeploy-cache.db"
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 10000
	}
	if cfg.Cache.SweepSchedule == "" {
		cfg.Cache.SweepSchedule = "0 * * * *"
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "proxydeploy"
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}
	}
}

func applyBackendDefaults(b *BackendConfig) {
	if b.Timeout == 0 {
		b.Timeout = 10 * time.Second
	}
}

// NewDefaultConfig returns a configuration populated entirely with defaults.
// Backend base URLs are empty and must be provided before the config
// validates.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Telemetry.Metrics.Enabled = true
	return cfg
}
