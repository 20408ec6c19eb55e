// Package health serves the liveness and version endpoints.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}

// Checker serves status endpoints and aggregates registered readiness
// checks.
type Checker struct {
	build BuildInfo

	mu     sync.RWMutex
	checks map[string]func() error
}

// NewChecker creates a checker for the given build.
func NewChecker(build BuildInfo) *Checker {
	return &Checker{build: build, checks: make(map[string]func() error)}
}

// Register adds a named readiness check. Checks run on every readiness
// request and must be cheap.
func (c *Checker) Register(name string, check func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// EchoHandler answers liveness probes.
func (c *Checker) EchoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// VersionHandler reports the build identity.
func (c *Checker) VersionHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.build)
	})
}

// ReadyHandler runs every registered check and reports 503 when any fails.
func (c *Checker) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.RLock()
		defer c.mu.RUnlock()

		failures := make(map[string]string)
		for name, check := range c.checks {
			if err := check(); err != nil {
				failures[name] = err.Error()
			}
		}
		if len(failures) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":   "unavailable",
				"failures": failures,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
