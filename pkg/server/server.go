// Package server assembles the HTTP surface of the proxy deployment
// gateway and owns the server lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Masterminds/semver/v3"

	"platform-hq/proxydeploy/pkg/config"
	"platform-hq/proxydeploy/pkg/server/handlers"
	"platform-hq/proxydeploy/pkg/server/middleware"
	"platform-hq/proxydeploy/pkg/telemetry/health"
	"platform-hq/proxydeploy/pkg/telemetry/metrics"
)

// APIPrefix is the base path of the service's own API.
const APIPrefix = "/v1"

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Deployments *handlers.Deployment
	Proxy       *handlers.Proxy
	Redirect    *handlers.Redirect
	Metrics     *metrics.Collector
	Health      *health.Checker
}

// Server is the HTTP server for the proxy deployment API.
type Server struct {
	cfg  config.ServerConfig
	auth config.AuthConfig
	deps Deps

	httpServer   *http.Server
	shutdownOnce sync.Once

	mu        sync.Mutex
	isRunning bool
}

// New creates a server over the given collaborators.
func New(cfg config.ServerConfig, auth config.AuthConfig, deps Deps) *Server {
	return &Server{cfg: cfg, auth: auth, deps: deps}
}

// NewThreshold parses the configured mule version threshold.
func NewThreshold(cfg config.GatewayVersionsConfig) (*semver.Constraints, error) {
	threshold, err := semver.NewConstraint(cfg.MuleVersionThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid mule version threshold %q: %w", cfg.MuleVersionThreshold, err)
	}
	return threshold, nil
}

// Start starts the server and blocks until the context is cancelled, a
// termination signal arrives or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.cfg.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		IdleTimeout:    s.cfg.IdleTimeout,
		MaxHeaderBytes: s.cfg.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", s.cfg.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		running := s.isRunning
		s.mu.Unlock()
		if !running {
			return
		}

		slog.Info("initiating graceful shutdown", "timeout", s.cfg.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("server stopped")
	})

	return shutdownErr
}

// Handler builds the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	deploymentBase := APIPrefix + "/organizations/{organizationID}/environments/{environmentID}/apis/{environmentAPIID}"

	// Status endpoints.
	mux.Handle("GET "+APIPrefix+"/status/echo", s.deps.Health.EchoHandler())
	mux.Handle("GET "+APIPrefix+"/status/version", s.deps.Health.VersionHandler())
	mux.Handle("GET /ready", s.deps.Health.ReadyHandler())
	if s.deps.Metrics != nil {
		mux.Handle("GET /metrics", s.deps.Metrics.Handler())
	}

	// Deployment endpoints. Requests predating the mule 4 threshold fall
	// through to the redirect inside the handlers.
	mux.HandleFunc("POST "+deploymentBase+"/deployments", s.deps.Deployments.Create)
	mux.HandleFunc("PUT "+deploymentBase+"/deployments/{proxyDeploymentID}", s.deps.Deployments.Replace)
	mux.HandleFunc("PATCH "+deploymentBase+"/deployments/{proxyDeploymentID}", s.deps.Deployments.Update)

	// Proxy artifact download.
	mux.Handle("GET "+deploymentBase+"/proxy", s.deps.Proxy)

	// Everything else under the API prefix passes through to the API
	// Manager unchanged.
	mux.Handle(APIPrefix+"/", s.deps.Redirect)

	anonymous := append([]string{"/metrics", "/ready"}, s.auth.AnonymousPaths...)

	var handler http.Handler = mux
	handler = middleware.Auth(APIPrefix, anonymous)(handler)
	if s.deps.Metrics != nil {
		handler = middleware.Metrics(s.deps.Metrics, mux)(handler)
	}
	handler = middleware.Logging(handler)
	handler = middleware.WithRequestID(handler)
	handler = middleware.Recovery(handler)
	return handler
}

// IsRunning reports whether the server is accepting requests.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
