package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"platform-hq/proxydeploy/pkg/platform"
	"platform-hq/proxydeploy/pkg/platform/apimanager"
	"platform-hq/proxydeploy/pkg/proxygen"
)

type fakeAPISource struct {
	api *apimanager.EnvironmentAPI
	err error
}

func (f *fakeAPISource) GetEnvironmentAPI(ctx context.Context, s platform.Session, id int) (*apimanager.EnvironmentAPI, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.api, nil
}

type fakeProxyGenerator struct {
	artifact *proxygen.Artifact
	err      error
}

func (f *fakeProxyGenerator) Generate(ctx context.Context, s platform.Session, api *apimanager.EnvironmentAPI) (*proxygen.Artifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.artifact, nil
}

func proxyMux(h *Proxy) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /v1/organizations/{organizationID}/environments/{environmentID}/apis/{environmentAPIID}/proxy", h)
	return mux
}

func TestProxyDownload(t *testing.T) {
	apis := &fakeAPISource{api: &apimanager.EnvironmentAPI{
		ID:       42,
		Endpoint: &apimanager.Endpoint{Type: "http", MuleVersion4OrAbove: true},
	}}
	proxies := &fakeProxyGenerator{artifact: &proxygen.Artifact{Name: "orders-v1-prod", Data: []byte("jar-bytes")}}
	mux := proxyMux(NewProxy(apis, proxies, &fallbackSpy{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/organizations/org-1/environments/env-1/apis/42/proxy", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="orders-v1-prod.jar"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/octet-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if rec.Body.String() != "jar-bytes" {
		t.Errorf("body = %q", rec.Body)
	}
}

func TestProxyDownloadFallsThroughForOldAPIs(t *testing.T) {
	tests := []struct {
		name string
		api  *apimanager.EnvironmentAPI
	}{
		{"no endpoint", &apimanager.EnvironmentAPI{ID: 42}},
		{"mule 3 endpoint", &apimanager.EnvironmentAPI{
			ID:       42,
			Endpoint: &apimanager.Endpoint{Type: "http", MuleVersion4OrAbove: false},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := &fallbackSpy{}
			mux := proxyMux(NewProxy(&fakeAPISource{api: tt.api}, &fakeProxyGenerator{}, fallback))

			req := httptest.NewRequest(http.MethodGet, "/v1/organizations/org-1/environments/env-1/apis/42/proxy", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if !fallback.called {
				t.Error("fallback did not run")
			}
		})
	}
}

func TestProxyDownloadUnknownAPI(t *testing.T) {
	apis := &fakeAPISource{err: &platform.NotFoundError{Backend: "api-manager", Resource: "environment api 42"}}
	mux := proxyMux(NewProxy(apis, &fakeProxyGenerator{}, &fallbackSpy{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/organizations/org-1/environments/env-1/apis/42/proxy", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
