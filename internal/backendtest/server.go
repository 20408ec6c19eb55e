// Package backendtest provides an httptest-backed mock platform backend
// for client and deployer tests.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Response configures the reply for one method+path.
type Response struct {
	StatusCode int
	Body       any
	Headers    map[string]string
	Delay      time.Duration
}

// Request is one request the server observed.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Server is a scripted mock backend. Responses are keyed by "METHOD path";
// unseen routes answer 404. Every request is recorded for assertions.
type Server struct {
	server *httptest.Server

	mu        sync.Mutex
	responses map[string][]Response
	requests  []Request
}

// New starts a mock backend. Callers own Close.
func New() *Server {
	s := &Server{responses: make(map[string][]Response)}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string { return s.server.URL }

// Close shuts the server down.
func (s *Server) Close() { s.server.Close() }

// Respond scripts the reply for a method and path. Scripting the same
// route again queues the response; queued responses are consumed in order
// and the last one repeats.
func (s *Server) Respond(method, path string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.responses[key] = append(s.responses[key], resp)
}

// RespondJSON scripts a JSON reply with the given status.
func (s *Server) RespondJSON(method, path string, status int, body any) {
	s.Respond(method, path, Response{StatusCode: status, Body: body})
}

// Requests returns a copy of every request observed so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount returns how many requests matched the method and path.
func (s *Server) RequestCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			count++
		}
	}
	return count
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})

	key := r.Method + " " + r.URL.Path
	queue := s.responses[key]
	var resp Response
	found := len(queue) > 0
	if found {
		resp = queue[0]
		if len(queue) > 1 {
			s.responses[key] = queue[1:]
		}
	}
	s.mu.Unlock()

	if !found {
		http.NotFound(w, r)
		return
	}

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for header, value := range resp.Headers {
		w.Header().Set(header, value)
	}
	if resp.Body != nil {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != nil {
		_ = json.NewEncoder(w).Encode(resp.Body)
	}
}
