package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cache is the collaborator consulted by cached calls. Backends live in
// pkg/cache; anything with get/set semantics works.
type Cache interface {
	// Get returns the cached value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// Recorder receives per-call metrics. A nil Recorder disables recording.
type Recorder interface {
	RecordBackendRequest(backend, method, outcome string, duration time.Duration)
}

// Client executes authenticated calls against one platform backend and maps
// every failure onto the closed error set in this package. It attaches the
// bearer token and the backend's fixed timeout to each call and performs no
// automatic retry; retry policy belongs to the caller.
type Client struct {
	backend  string
	baseURL  string
	timeout  time.Duration
	hc       *http.Client
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithRecorder attaches a metrics recorder to the client.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithHTTPClient replaces the underlying HTTP client. Tests use this to
// inject transports; the configured timeout still applies per call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// NewClient creates a client for the named backend.
func NewClient(backend, baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		hc: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		logger: slog.Default().With("backend", backend),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend returns the backend name the client talks to.
func (c *Client) Backend() string { return c.backend }

// Call describes one outbound request. Body and Upload are mutually
// exclusive; Body is JSON-encoded.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
	Upload *Upload
}

// Upload describes a multipart form body with one attached file.
type Upload struct {
	// Fields are plain form fields written before the file part.
	Fields map[string]string

	// FileField is the form field name of the file part.
	FileField string

	// FileName is the attachment file name.
	FileName string

	// Content is the file content.
	Content io.Reader
}

// Do executes the call with the session's bearer token and the backend's
// fixed timeout. On 2xx it returns the raw response body; every other
// outcome is mapped to exactly one typed error.
func (c *Client) Do(ctx context.Context, token string, call Call) ([]byte, error) {
	start := time.Now()
	body, err := c.do(ctx, token, call)
	c.record(call.Method, err, time.Since(start))
	return body, err
}

// DoJSON executes the call and unmarshals the response body into out.
// A nil out discards the body.
func (c *Client) DoJSON(ctx context.Context, token string, call Call, out any) error {
	body, err := c.Do(ctx, token, call)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ServiceError{
			Backend:    c.backend,
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("malformed response body: %v", err),
		}
	}
	return nil
}

// cacheRecorder is implemented by recorders interested in cache
// effectiveness.
type cacheRecorder interface {
	RecordCacheLookup(hit bool)
}

// DoCached consults the cache before calling. On a hit the cached value is
// returned without a call; on a miss the call is executed, the optional
// mapper applied, and the mapped result stored under key. Cache failures are
// logged and treated as misses so the backend call still goes through.
func (c *Client) DoCached(ctx context.Context, store Cache, key, token string, call Call, mapper func([]byte) ([]byte, error)) ([]byte, error) {
	if store != nil {
		cached, ok, err := store.Get(ctx, key)
		if err != nil {
			c.logger.Warn("cache lookup failed", "key", key, "error", err)
			ok = false
		}
		if cr, records := c.recorder.(cacheRecorder); records {
			cr.RecordCacheLookup(ok)
		}
		if ok {
			return cached, nil
		}
	}

	body, err := c.Do(ctx, token, call)
	if err != nil {
		return nil, err
	}
	if mapper != nil {
		if body, err = mapper(body); err != nil {
			return nil, err
		}
	}
	if store != nil {
		if err := store.Set(ctx, key, body); err != nil {
			c.logger.Warn("cache store failed", "key", key, "error", err)
		}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, token string, call Call) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(ctx, token, call)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("calling backend", "method", call.Method, "path", call.Path)

	resp, err := c.hc.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &TimeoutError{Backend: c.backend, Timeout: c.timeout}
		}
		return nil, &ServiceError{Backend: c.backend, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &TimeoutError{Backend: c.backend, Timeout: c.timeout}
		}
		return nil, &ServiceError{Backend: c.backend, Message: fmt.Sprintf("reading response: %v", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, c.mapStatus(resp.StatusCode, body)
}

func (c *Client) buildRequest(ctx context.Context, token string, call Call) (*http.Request, error) {
	u := c.baseURL + call.Path
	if len(call.Query) > 0 {
		u += "?" + call.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case call.Upload != nil:
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		for field, value := range call.Upload.Fields {
			if err := mw.WriteField(field, value); err != nil {
				return nil, &ServiceError{Backend: c.backend, Message: fmt.Sprintf("building upload: %v", err)}
			}
		}
		part, err := mw.CreateFormFile(call.Upload.FileField, call.Upload.FileName)
		if err != nil {
			return nil, &ServiceError{Backend: c.backend, Message: fmt.Sprintf("building upload: %v", err)}
		}
		if _, err := io.Copy(part, call.Upload.Content); err != nil {
			return nil, &ServiceError{Backend: c.backend, Message: fmt.Sprintf("building upload: %v", err)}
		}
		if err := mw.Close(); err != nil {
			return nil, &ServiceError{Backend: c.backend, Message: fmt.Sprintf("building upload: %v", err)}
		}
		body = buf
		contentType = mw.FormDataContentType()

	case call.Body != nil:
		encoded, err := json.Marshal(call.Body)
		if err != nil {
			return nil, &ServiceError{Backend: c.backend, Message: fmt.Sprintf("encoding request body: %v", err)}
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, u, body)
	if err != nil {
		return nil, &ServiceError{Backend: c.backend, Message: err.Error()}
	}
	for key, values := range call.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// mapStatus translates a non-2xx response into the typed error for its
// status class. 409 is part of the closed set so deployment flows can branch
// on the variant rather than inspect status fields.
func (c *Client) mapStatus(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return &UnauthorizedError{Backend: c.backend}
	case http.StatusForbidden:
		return &ForbiddenError{Backend: c.backend}
	case http.StatusNotFound:
		return &NotFoundError{Backend: c.backend}
	case http.StatusConflict:
		return &ConflictError{Backend: c.backend, Message: parseErrorBody(body)}
	default:
		return &ServiceError{Backend: c.backend, StatusCode: status, Message: parseErrorBody(body)}
	}
}

// parseErrorBody extracts "name: message" from a JSON error body, falling
// back to the raw text.
func parseErrorBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var parsed struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && (parsed.Name != "" || parsed.Message != "") {
		if parsed.Name != "" && parsed.Message != "" {
			return parsed.Name + ": " + parsed.Message
		}
		return parsed.Name + parsed.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 512 {
		text = text[:512]
	}
	return text
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) record(method string, err error, duration time.Duration) {
	if c.recorder == nil {
		return
	}
	outcome := "success"
	if err != nil {
		switch {
		case errors.As(err, new(*TimeoutError)):
			outcome = "timeout"
		case errors.As(err, new(*UnauthorizedError)), errors.As(err, new(*ForbiddenError)):
			outcome = "denied"
		case errors.As(err, new(*NotFoundError)):
			outcome = "not_found"
		case errors.As(err, new(*ConflictError)):
			outcome = "conflict"
		default:
			outcome = "error"
		}
	}
	c.recorder.RecordBackendRequest(c.backend, method, outcome, duration)
}
