package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		authHeader string
		wantStatus int
		wantToken  string
	}{
		{
			name:       "bearer token accepted",
			path:       "/v1/organizations/org-1/apis",
			authHeader: "Bearer tok-123",
			wantStatus: http.StatusOK,
			wantToken:  "tok-123",
		},
		{
			name:       "lowercase scheme accepted",
			path:       "/v1/things",
			authHeader: "bearer tok-123",
			wantStatus: http.StatusOK,
			wantToken:  "tok-123",
		},
		{
			name:       "missing header rejected",
			path:       "/v1/things",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing token rejected",
			path:       "/v1/things",
			authHeader: "Bearer",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "extra segments rejected",
			path:       "/v1/things",
			authHeader: "Bearer tok extra",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme rejected",
			path:       "/v1/things",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "anonymous path bypasses auth",
			path:       "/v1/metrics",
			wantStatus: http.StatusOK,
		},
		{
			name:       "anonymous match is prefix-relative",
			path:       "/v1/status/echo",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenToken string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenToken = Token(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			handler := Auth("/v1", []string{"/metrics", "/status/echo"})(next)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantToken != "" && seenToken != tt.wantToken {
				t.Errorf("token = %q, want %q", seenToken, tt.wantToken)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var payload struct {
					Name string `json:"name"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
					t.Fatalf("decoding error body: %v", err)
				}
				if payload.Name != "InvalidAuthHeaderError" {
					t.Errorf("error name = %q", payload.Name)
				}
			}
		})
	}
}

func TestWithRequestID(t *testing.T) {
	t.Run("generates an id", func(t *testing.T) {
		var seen string
		handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Fatal("no request id assigned")
		}
		if got := rec.Header().Get(RequestIDHeader); got != seen {
			t.Errorf("response header = %q, context id = %q", got, seen)
		}
	})

	t.Run("propagates an inbound id", func(t *testing.T) {
		var seen string
		handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-abc")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if seen != "req-abc" {
			t.Errorf("request id = %q, want req-abc", seen)
		}
	})
}
