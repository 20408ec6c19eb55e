package middleware

import (
	"net/http"
	"time"
)

// HTTPRecorder receives per-request metrics.
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Metrics records request counts and latency. The route label is the mux
// pattern the request matches, which keeps metric cardinality bounded.
func Metrics(recorder HTTPRecorder, mux *http.ServeMux) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			route := "unmatched"
			if _, pattern := mux.Handler(r); pattern != "" {
				route = pattern
			}
			recorder.RecordHTTPRequest(r.Method, route, sw.status, time.Since(start))
		})
	}
}
