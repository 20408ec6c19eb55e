// Package middleware contains the HTTP middleware chain: recovery, request
// identity, logging, metrics and bearer authentication.
package middleware

import (
	"context"
	"net/http"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	tokenKey
)

// RequestID returns the request id assigned by the request id middleware,
// or "" when none was assigned.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Token returns the bearer token extracted by the auth middleware, or ""
// on anonymous paths.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// statusWriter captures the response status code for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}
