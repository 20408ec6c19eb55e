package deployment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"platform-hq/proxydeploy/pkg/platform"
	"platform-hq/proxydeploy/pkg/platform/apimanager"
	"platform-hq/proxydeploy/pkg/platform/cloudhub"
	"platform-hq/proxydeploy/pkg/platform/hybrid"
	"platform-hq/proxydeploy/pkg/proxygen"
)

type fakeAPIManager struct {
	api *apimanager.EnvironmentAPI

	created []*apimanager.ProxyDeployment
	updated []*apimanager.ProxyDeployment

	getErr    error
	createErr error
	updateErr error
}

func (f *fakeAPIManager) GetEnvironmentAPI(ctx context.Context, s platform.Session, id int) (*apimanager.EnvironmentAPI, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.api, nil
}

func (f *fakeAPIManager) CreateProxyDeployment(ctx context.Context, s platform.Session, id int, draft *apimanager.ProxyDeployment) (*apimanager.ProxyDeployment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	entity := *draft
	entity.ID = "pd-1"
	f.created = append(f.created, &entity)
	return &entity, nil
}

func (f *fakeAPIManager) UpdateProxyDeployment(ctx context.Context, s platform.Session, id int, deployment *apimanager.ProxyDeployment) (*apimanager.ProxyDeployment, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	entity := *deployment
	f.updated = append(f.updated, &entity)
	return &entity, nil
}

type fakeGenerator struct {
	artifact *proxygen.Artifact
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(ctx context.Context, s platform.Session, api *apimanager.EnvironmentAPI) (*proxygen.Artifact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.artifact, nil
}

type fakeCloudHub struct {
	upserts []cloudhub.UpsertOptions
	deploys int

	upsertErr error
	deployErr error
}

func (f *fakeCloudHub) Upsert(ctx context.Context, s platform.Session, info cloudhub.ApplicationInfo, opts cloudhub.UpsertOptions) (*cloudhub.Application, error) {
	f.upserts = append(f.upserts, opts)
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return &cloudhub.Application{Name: info.Name}, nil
}

func (f *fakeCloudHub) Deploy(ctx context.Context, s platform.Session, environmentID, name string, artifact []byte) error {
	f.deploys++
	return f.deployErr
}

type fakeHybrid struct {
	requests []hybrid.Request
	result   *hybrid.Result
	err      error
}

func (f *fakeHybrid) Deploy(ctx context.Context, s platform.Session, req hybrid.Request) (*hybrid.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type recordedDeployment struct {
	targetType string
	outcome    string
}

type fakeRecorder struct {
	mu       sync.Mutex
	recorded []recordedDeployment
}

func (f *fakeRecorder) RecordDeployment(targetType, outcome string, duration time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, recordedDeployment{targetType, outcome})
}

func mule4API() *apimanager.EnvironmentAPI {
	return &apimanager.EnvironmentAPI{
		ID:       42,
		AssetID:  "orders",
		Endpoint: &apimanager.Endpoint{Type: "http", URI: "http://backend.internal", MuleVersion4OrAbove: true},
	}
}

func TestCreateRejectsMule3Endpoint(t *testing.T) {
	apis := &fakeAPIManager{api: &apimanager.EnvironmentAPI{
		ID:       42,
		Endpoint: &apimanager.Endpoint{Type: "http", MuleVersion4OrAbove: false},
	}}
	svc := NewService(apis, &fakeGenerator{}, &fakeCloudHub{}, &fakeHybrid{})

	_, err := svc.Create(context.Background(), platform.Session{}, &apimanager.ProxyDeployment{
		EnvironmentAPIID: 42,
		Type:             apimanager.DeploymentTypeCloudHub,
	})
	var badRequest *BadRequestError
	if !errors.As(err, &badRequest) {
		t.Fatalf("got %v (%T), want *BadRequestError", err, err)
	}
	if len(apis.created) != 0 {
		t.Error("entity recorded despite validation failure")
	}
}

func TestCreateAllowsMissingEndpoint(t *testing.T) {
	apis := &fakeAPIManager{api: &apimanager.EnvironmentAPI{ID: 42}}
	ch := &fakeCloudHub{}
	gen := &fakeGenerator{artifact: &proxygen.Artifact{Name: "orders-v1-prod", Data: []byte("jar")}}
	svc := NewService(apis, gen, ch, &fakeHybrid{})

	// The deployment records but runs nothing for an unknown target type.
	entity, err := svc.Create(context.Background(), platform.Session{}, &apimanager.ProxyDeployment{
		EnvironmentAPIID: 42,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if entity.ID != "pd-1" {
		t.Errorf("entity.ID = %q", entity.ID)
	}
	if len(ch.upserts) != 0 || gen.calls != 0 {
		t.Error("deployment flow ran for a typeless deployment")
	}
}

func TestCreateDeploysToCloudHub(t *testing.T) {
	apis := &fakeAPIManager{api: mule4API()}
	ch := &fakeCloudHub{}
	gen := &fakeGenerator{artifact: &proxygen.Artifact{Name: "orders-v1-prod", Data: []byte("jar")}}
	recorder := &fakeRecorder{}
	svc := NewService(apis, gen, ch, &fakeHybrid{}, WithRecorder(recorder))

	_, err := svc.Create(context.Background(), platform.Session{}, &apimanager.ProxyDeployment{
		EnvironmentAPIID: 42,
		ApplicationName:  "orders-v1-prod",
		GatewayVersion:   "4.0.1",
		EnvironmentID:    "env-1",
		Type:             apimanager.DeploymentTypeCloudHub,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(ch.upserts) != 1 || ch.upserts[0].IgnoreDuplicatedError {
		t.Errorf("upserts = %+v, want one without overwrite", ch.upserts)
	}
	if ch.deploys != 1 {
		t.Errorf("deploys = %d", ch.deploys)
	}
	if len(recorder.recorded) != 1 || recorder.recorded[0] != (recordedDeployment{"CH", "success"}) {
		t.Errorf("recorded = %+v", recorder.recorded)
	}
}

func TestCreateWithOverwritePropagatesToUpsert(t *testing.T) {
	apis := &fakeAPIManager{api: mule4API()}
	ch := &fakeCloudHub{}
	gen := &fakeGenerator{artifact: &proxygen.Artifact{Name: "orders-v1-prod", Data: []byte("jar")}}
	svc := NewService(apis, gen, ch, &fakeHybrid{})

	_, err := svc.Create(context.Background(), platform.Session{}, &apimanager.ProxyDeployment{
		EnvironmentAPIID: 42,
		Type:             apimanager.DeploymentTypeCloudHub,
		Overwrite:        true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(ch.upserts) != 1 || !ch.upserts[0].IgnoreDuplicatedError {
		t.Errorf("upserts = %+v, want one with overwrite", ch.upserts)
	}
}

func TestUpdateAlwaysOverwrites(t *testing.T) {
	apis := &fakeAPIManager{api: mule4API()}
	ch := &fakeCloudHub{}
	gen := &fakeGenerator{artifact: &proxygen.Artifact{Name: "orders-v1-prod", Data: []byte("jar")}}
	svc := NewService(apis, gen, ch, &fakeHybrid{})

	_, err := svc.Update(context.Background(), platform.Session{}, &apimanager.ProxyDeployment{
		EnvironmentAPIID: 42,
		Type:             apimanager.DeploymentTypeCloudHub,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(ch.upserts) != 1 || !ch.upserts[0].IgnoreDuplicatedError {
		t.Errorf("upserts = %+v, want one with overwrite", ch.upserts)
	}
	if len(apis.updated) != 1 {
		t.Errorf("updated = %d entities", len(apis.updated))
	}
}

func TestHybridDeploymentWritesBackIdentity(t *testing.T) {
	apis := &fakeAPIManager{api: mule4API()}
	hy := &fakeHybrid{result: &hybrid.Result{
		ApplicationID: "81",
		Name:          "orders-v1-prod",
		TargetID:      "5",
		Status:        "STARTED",
	}}
	gen := &fakeGenerator{artifact: &proxygen.Artifact{Name: "orders-v1-prod", Data: []byte("jar")}}
	recorder := &fakeRecorder{}
	svc := NewService(apis, gen, &fakeCloudHub{}, hy, WithRecorder(recorder))

	entity, err := svc.Create(context.Background(), platform.Session{}, &apimanager.ProxyDeployment{
		EnvironmentAPIID: 42,
		Type:             apimanager.DeploymentTypeHybrid,
		TargetID:         "5",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if len(hy.requests) != 1 {
		t.Fatalf("hybrid deploys = %d", len(hy.requests))
	}
	// The generated artifact name, not the draft's, names the application.
	if hy.requests[0].Name != "orders-v1-prod" {
		t.Errorf("request.Name = %q", hy.requests[0].Name)
	}

	if entity.ApplicationID != "81" || entity.ApplicationName != "orders-v1-prod" || entity.TargetID != "5" {
		t.Errorf("entity identity = %+v", entity)
	}
	// The write-back persists through the API Manager.
	if len(apis.updated) != 1 {
		t.Fatalf("updated = %d entities", len(apis.updated))
	}
	if apis.updated[0].ApplicationID != "81" {
		t.Errorf("persisted ApplicationID = %q", apis.updated[0].ApplicationID)
	}
	if len(recorder.recorded) != 1 || recorder.recorded[0] != (recordedDeployment{"HY", "success"}) {
		t.Errorf("recorded = %+v", recorder.recorded)
	}
}

func TestDeploymentFailureIsRecorded(t *testing.T) {
	apis := &fakeAPIManager{api: mule4API()}
	ch := &fakeCloudHub{upsertErr: errors.New("boom")}
	recorder := &fakeRecorder{}
	svc := NewService(apis, &fakeGenerator{}, ch, &fakeHybrid{}, WithRecorder(recorder))

	_, err := svc.Create(context.Background(), platform.Session{}, &apimanager.ProxyDeployment{
		EnvironmentAPIID: 42,
		Type:             apimanager.DeploymentTypeCloudHub,
	})
	if err == nil {
		t.Fatal("expected deployment error")
	}
	// The entity stays recorded; retries re-deploy it.
	if len(apis.created) != 1 {
		t.Errorf("created = %d entities", len(apis.created))
	}
	if len(recorder.recorded) != 1 || recorder.recorded[0] != (recordedDeployment{"CH", "failure"}) {
		t.Errorf("recorded = %+v", recorder.recorded)
	}
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	locks := newKeyedMutex()

	var mu sync.Mutex
	running := 0
	peak := 0

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.lock(42)
			defer release()

			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak concurrent holders = %d, want 1", peak)
	}
	if len(locks.entries) != 0 {
		t.Errorf("entries leaked: %d", len(locks.entries))
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	locks := newKeyedMutex()

	releaseA := locks.lock(1)
	done := make(chan struct{})
	go func() {
		release := locks.lock(2)
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent key blocked")
	}
	releaseA()
}
