package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// forwardedHeaders are the request headers passed through verbatim on a
// redirect. Everything else is dropped.
var forwardedHeaders = []string{"Authorization", "Cookie", "Content-Type", "Accept"}

// Redirect passes a request through to the API Manager's proxies xAPI
// unchanged: same method, same relative path and query, same body, and the
// caller's own credentials. Responses stream back with their headers, so
// binary downloads and content dispositions survive the hop.
type Redirect struct {
	target    string
	apiPrefix string
	client    *http.Client
	logger    *slog.Logger
}

// NewRedirect creates the pass-through handler. target is the API
// Manager's base URL joined with its proxies xAPI path; apiPrefix is this
// service's own route prefix, stripped before forwarding.
func NewRedirect(target, apiPrefix string, timeout time.Duration) *Redirect {
	return &Redirect{
		target:    strings.TrimRight(target, "/"),
		apiPrefix: apiPrefix,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: slog.Default().With("component", "redirect"),
	}
}

func (h *Redirect) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	url := h.target + strings.TrimPrefix(r.URL.Path, h.apiPrefix)
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, header := range forwardedHeaders {
		if value := r.Header.Get(header); value != "" {
			req.Header.Set(header, value)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("redirect failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"name":    "ServiceError",
			"message": "upstream unavailable",
		})
		return
	}
	defer resp.Body.Close()

	for _, header := range []string{"Content-Type", "Content-Disposition", "Content-Length"} {
		if value := resp.Header.Get(header); value != "" {
			w.Header().Set(header, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Warn("redirect response copy interrupted", "path", r.URL.Path, "error", err)
	}
}
