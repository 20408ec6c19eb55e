// Package config provides configuration loading, validation and hot reload
// for the proxy deployment gateway.
//
// Configuration is read from a YAML file, completed with defaults, overridden
// by PROXYDEPLOY_* environment variables and validated before use. The
// optional Watcher reloads the file on change for long-running servers.
package config
