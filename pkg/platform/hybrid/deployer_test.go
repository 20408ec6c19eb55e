package hybrid

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"platform-hq/proxydeploy/internal/backendtest"
	"platform-hq/proxydeploy/pkg/platform"
)

func newTestDeployer(srv *backendtest.Server) *Deployer {
	return NewDeployer(NewClient(platform.NewClient(Backend, srv.URL(), time.Second)))
}

func testSession() platform.Session {
	return platform.Session{Token: "tok", OrganizationID: "org-1", EnvironmentID: "env-1"}
}

// wireApp builds a response body in the Runtime Manager's shape, with the
// application name nested under artifact.
func wireApp(id int64, name, status string, targetID int64) map[string]any {
	return map[string]any{
		"id":                 id,
		"artifact":           map[string]any{"name": name},
		"lastReportedStatus": status,
		"target":             map[string]any{"id": targetID},
	}
}

func TestEffectiveStatus(t *testing.T) {
	tests := []struct {
		name string
		app  Application
		want string
	}{
		{
			name: "started passes through",
			app:  Application{Status: "STARTED"},
			want: "STARTED",
		},
		{
			name: "partially started without failures passes through",
			app: Application{
				Status: StatusPartiallyStarted,
				ServerArtifacts: []ServerArtifact{
					{Status: "STARTED"}, {Status: "STARTING"},
				},
			},
			want: StatusPartiallyStarted,
		},
		{
			name: "partially started with a failed artifact is a failure",
			app: Application{
				Status: StatusPartiallyStarted,
				ServerArtifacts: []ServerArtifact{
					{Status: "STARTED"}, {Status: StatusDeploymentFailed},
				},
			},
			want: StatusDeploymentFailed,
		},
		{
			name: "failed artifacts are ignored outside partial start",
			app: Application{
				Status:          "STARTED",
				ServerArtifacts: []ServerArtifact{{Status: StatusDeploymentFailed}},
			},
			want: "STARTED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.app.EffectiveStatus(); got != tt.want {
				t.Errorf("EffectiveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeployKnownApplicationUpdatesTargetMatch(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	// The recorded application lives on target 9; the deployment goes to
	// target 5, where the proxy runs as application 81. The update must hit
	// 81, never the recorded 77.
	srv.RespondJSON(http.MethodGet, "/api/v1/applications/77", http.StatusOK,
		map[string]any{"data": wireApp(77, "orders-v1", "STARTED", 9)})
	srv.RespondJSON(http.MethodGet, "/api/v1/applications", http.StatusOK,
		map[string]any{"data": []any{wireApp(81, "orders-v1", "STARTED", 5)}})
	srv.RespondJSON(http.MethodPatch, "/api/v1/applications/81", http.StatusOK,
		map[string]any{"data": wireApp(81, "orders-v1", "STARTED", 5)})

	result, err := newTestDeployer(srv).Deploy(context.Background(), testSession(), Request{
		ApplicationID: "77",
		Name:          "orders-v1",
		TargetID:      "5",
		Artifact:      []byte("jar"),
	})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if result.ApplicationID != "81" || result.TargetID != "5" {
		t.Errorf("result = %+v", result)
	}
	if got := srv.RequestCount(http.MethodPatch, "/api/v1/applications/77"); got != 0 {
		t.Errorf("recorded application updated %d times, want 0", got)
	}

	var query string
	for _, req := range srv.Requests() {
		if req.Method == http.MethodGet && req.Path == "/api/v1/applications" {
			query = req.Query
		}
	}
	if query == "" {
		t.Fatal("query request not observed")
	}
	for _, want := range []string{"artifactName=orders-v1", "targetId=5"} {
		if !containsParam(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
}

func TestDeployKnownApplicationCreatesOnNewTarget(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	srv.RespondJSON(http.MethodGet, "/api/v1/applications/77", http.StatusOK,
		map[string]any{"data": wireApp(77, "orders-v1", "STARTED", 9)})
	srv.RespondJSON(http.MethodGet, "/api/v1/applications", http.StatusOK,
		map[string]any{"data": []any{}})
	srv.RespondJSON(http.MethodPost, "/api/v1/applications", http.StatusOK,
		map[string]any{"data": wireApp(90, "orders-v1", "DEPLOYING", 5)})

	result, err := newTestDeployer(srv).Deploy(context.Background(), testSession(), Request{
		ApplicationID: "77",
		Name:          "orders-v1",
		TargetID:      "5",
		Artifact:      []byte("jar"),
	})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if result.ApplicationID != "90" || result.TargetID != "5" {
		t.Errorf("result = %+v", result)
	}
	if got := srv.RequestCount(http.MethodPatch, "/api/v1/applications/77"); got != 0 {
		t.Errorf("recorded application updated %d times, want 0", got)
	}
}

func TestDeployFirstDeploymentCreatesWithoutQuery(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	srv.RespondJSON(http.MethodPost, "/api/v1/applications", http.StatusOK,
		map[string]any{"data": wireApp(90, "orders-v1", "DEPLOYING", 5)})

	result, err := newTestDeployer(srv).Deploy(context.Background(), testSession(), Request{
		Name:     "orders-v1",
		TargetID: "5",
		Artifact: []byte("jar"),
	})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if result.ApplicationID != "90" || result.Status != "DEPLOYING" {
		t.Errorf("result = %+v", result)
	}
	if got := srv.RequestCount(http.MethodGet, "/api/v1/applications"); got != 0 {
		t.Errorf("query called %d times, want 0", got)
	}

	var created *backendtest.Request
	for _, req := range srv.Requests() {
		if req.Method == http.MethodPost {
			created = &req
		}
	}
	if created == nil {
		t.Fatal("create request not observed")
	}
	if got := created.Header.Get("X-ANYPNT-ORG-ID"); got != "org-1" {
		t.Errorf("organization header = %q", got)
	}
	if got := created.Header.Get("X-ANYPNT-ENV-ID"); got != "env-1" {
		t.Errorf("environment header = %q", got)
	}
}

func TestDeployStaleIDCreatesDirectly(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	srv.RespondJSON(http.MethodGet, "/api/v1/applications/77", http.StatusNotFound, nil)
	srv.RespondJSON(http.MethodPost, "/api/v1/applications", http.StatusOK,
		map[string]any{"data": wireApp(90, "orders-v1", "DEPLOYING", 5)})

	result, err := newTestDeployer(srv).Deploy(context.Background(), testSession(), Request{
		ApplicationID: "77",
		Name:          "orders-v1",
		TargetID:      "5",
		Artifact:      []byte("jar"),
	})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if result.ApplicationID != "90" {
		t.Errorf("result.ApplicationID = %q, want 90", result.ApplicationID)
	}
	if got := srv.RequestCount(http.MethodGet, "/api/v1/applications"); got != 0 {
		t.Errorf("query called %d times, want 0", got)
	}
}

func TestDeployCreateConflict(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	// A same-named application the deployment entity does not know about
	// must not be adopted; the create conflict surfaces so the operator can
	// delete the foreign application.
	srv.RespondJSON(http.MethodPost, "/api/v1/applications", http.StatusConflict, nil)

	_, err := newTestDeployer(srv).Deploy(context.Background(), testSession(), Request{
		Name:     "orders-v1",
		TargetID: "5",
	})
	var consistency *EntityConsistencyError
	if !errors.As(err, &consistency) {
		t.Fatalf("got %v (%T), want *EntityConsistencyError", err, err)
	}
	if consistency.HTTPStatus() != http.StatusConflict {
		t.Errorf("HTTPStatus = %d, want 409", consistency.HTTPStatus())
	}
	if got := srv.RequestCount(http.MethodPatch, "/api/v1/applications"); got != 0 {
		t.Errorf("update called %d times, want 0", got)
	}
}

func TestDeployLocateErrorPropagates(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	srv.RespondJSON(http.MethodGet, "/api/v1/applications/77", http.StatusForbidden, nil)

	_, err := newTestDeployer(srv).Deploy(context.Background(), testSession(), Request{
		ApplicationID: "77",
		Name:          "orders-v1",
		TargetID:      "5",
	})
	var forbidden *platform.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("got %v (%T), want *ForbiddenError", err, err)
	}
}

func TestDeployMapsWireApplication(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	srv.RespondJSON(http.MethodPost, "/api/v1/applications", http.StatusOK,
		map[string]any{"data": map[string]any{
			"id":                 90,
			"name":               "internal-app-record",
			"artifact":           map[string]any{"name": "orders-v1"},
			"lastReportedStatus": StatusPartiallyStarted,
			"desiredStatus":      "STARTED",
			"target":             map[string]any{"id": 5},
			"serverArtifacts": []any{
				map[string]any{"id": 1, "lastReportedStatus": StatusDeploymentFailed},
			},
		}})

	result, err := newTestDeployer(srv).Deploy(context.Background(), testSession(), Request{
		Name:     "orders-v1",
		TargetID: "5",
		Artifact: []byte("jar"),
	})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	want := Result{
		ApplicationID: "90",
		Name:          "orders-v1",
		TargetID:      "5",
		Status:        StatusDeploymentFailed,
		DesiredStatus: "STARTED",
	}
	if *result != want {
		t.Errorf("result = %+v, want %+v", *result, want)
	}
}

func containsParam(query, param string) bool {
	for _, part := range strings.Split(query, "&") {
		if part == param {
			return true
		}
	}
	return false
}
