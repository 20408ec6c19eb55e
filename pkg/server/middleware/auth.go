package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Auth extracts the bearer token from the Authorization header and stores
// it in the request context. Paths listed in anonymousPaths (matched
// against the path with the API prefix stripped) bypass authentication.
// A missing or malformed header is rejected before any handler runs.
func Auth(apiPrefix string, anonymousPaths []string) func(http.Handler) http.Handler {
	anonymous := make(map[string]struct{}, len(anonymousPaths))
	for _, path := range anonymousPaths {
		anonymous[path] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			relative := strings.TrimPrefix(r.URL.Path, apiPrefix)
			if _, ok := anonymous[relative]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "authorization token missing")
				return
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || token == "" || strings.Contains(token, " ") {
				unauthorized(w, "malformed authorization header")
				return
			}
			if !strings.EqualFold(scheme, "Bearer") {
				unauthorized(w, "unsupported authorization scheme "+scheme)
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"name":    "InvalidAuthHeaderError",
		"message": message,
	})
}
