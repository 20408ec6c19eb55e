// Package metrics collects and exposes Prometheus metrics: inbound HTTP
// traffic, backend calls, deployment outcomes and cache effectiveness.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"platform-hq/proxydeploy/pkg/config"
)

// Collector owns every metric the service records. A disabled collector
// still accepts recording calls; they are no-ops.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	backendCalls   *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
	deployments    *prometheus.CounterVec
	deployLatency  *prometheus.HistogramVec
	cacheOps       *prometheus.CounterVec
}

// NewCollector creates a collector registered on the given registry. A nil
// registry gets a fresh one.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "proxydeploy"
	}
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		buckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	}

	c := &Collector{
		enabled:  cfg.Enabled,
		registry: registry,

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Inbound HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Inbound HTTP request latency.",
			Buckets:   buckets,
		}, []string{"method", "route"}),

		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend calls by backend, method and outcome.",
		}, []string{"backend", "method", "outcome"}),

		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend call latency.",
			Buckets:   buckets,
		}, []string{"backend", "method"}),

		deployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deployment",
			Name:      "runs_total",
			Help:      "Deployment runs by target type and outcome.",
		}, []string{"target_type", "outcome"}),

		deployLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "deployment",
			Name:      "run_duration_seconds",
			Help:      "End to end deployment run latency.",
			Buckets:   buckets,
		}, []string{"target_type"}),

		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.backendCalls,
		c.backendLatency,
		c.deployments,
		c.deployLatency,
		c.cacheOps,
	)
	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.enabled {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordBackendRequest records one backend call. Implements the call
// wrapper's Recorder interface.
func (c *Collector) RecordBackendRequest(backend, method, outcome string, duration time.Duration) {
	if !c.enabled {
		return
	}
	c.backendCalls.WithLabelValues(backend, method, outcome).Inc()
	c.backendLatency.WithLabelValues(backend, method).Observe(duration.Seconds())
}

// RecordDeployment records one deployment run. Implements the deployment
// orchestrator's Recorder interface.
func (c *Collector) RecordDeployment(targetType, outcome string, duration time.Duration) {
	if !c.enabled {
		return
	}
	c.deployments.WithLabelValues(targetType, outcome).Inc()
	c.deployLatency.WithLabelValues(targetType).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss.
func (c *Collector) RecordCacheLookup(hit bool) {
	if !c.enabled {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheOps.WithLabelValues(result).Inc()
}
