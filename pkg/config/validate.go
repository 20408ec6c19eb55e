package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for errors. It returns a single error
// aggregating every problem found so operators can fix a config in one pass.
func Validate(cfg *Config) error {
	var problems []string

	if cfg.Server.ListenAddress == "" {
		problems = append(problems, "server.listen_address must not be empty")
	}

	validateBackend(&problems, "platform.api_manager", &cfg.Platform.APIManager.BackendConfig)
	validateBackend(&problems, "platform.cloudhub", &cfg.Platform.CloudHub.BackendConfig)
	validateBackend(&problems, "platform.hybrid", &cfg.Platform.Hybrid)
	validateBackend(&problems, "platform.core_services", &cfg.Platform.CoreServices)
	validateBackend(&problems, "platform.proxy_builder", &cfg.Platform.ProxyBuilder.BackendConfig)

	if r := cfg.Platform.CloudHub.SupportedRuntimeVersions; r != "" {
		if _, err := semver.NewConstraint(r); err != nil {
			problems = append(problems, fmt.Sprintf("platform.cloudhub.supported_runtime_versions: invalid semver range %q", r))
		}
	}

	if r := cfg.GatewayVersions.MuleVersionThreshold; r != "" {
		if _, err := semver.NewConstraint(r); err != nil {
			problems = append(problems, fmt.Sprintf("gateway_versions.mule_version_threshold: invalid semver range %q", r))
		}
	}

	switch cfg.Cache.Backend {
	case "memory", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("cache.backend: unknown backend %q (want memory or sqlite)", cfg.Cache.Backend))
	}
	if cfg.Cache.Retention < 0 {
		problems = append(problems, "cache.retention must not be negative")
	}
	if cfg.Cache.Retention > 0 {
		if _, err := cron.ParseStandard(cfg.Cache.SweepSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("cache.sweep_schedule: invalid cron expression %q", cfg.Cache.SweepSchedule))
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("telemetry.logging.level: unknown level %q", cfg.Telemetry.Logging.Level))
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("telemetry.logging.format: unknown format %q", cfg.Telemetry.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func validateBackend(problems *[]string, name string, b *BackendConfig) {
	if b.BaseURL == "" {
		*problems = append(*problems, name+".base_url must not be empty")
		return
	}
	u, err := url.Parse(b.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		*problems = append(*problems, fmt.Sprintf("%s.base_url: %q is not an absolute URL", name, b.BaseURL))
	}
	if b.Timeout <= 0 {
		*problems = append(*problems, name+".timeout must be positive")
	}
}
