// Package telemetry groups the observability building blocks: structured
// logging, Prometheus metrics and health endpoints.
package telemetry
