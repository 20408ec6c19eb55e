// Package deployment orchestrates proxy deployments: it validates the
// target API, records the deployment entity in the API Manager, builds the
// proxy artifact and drives the CloudHub or hybrid deployment flow.
package deployment

import (
	"context"
	"log/slog"
	"time"

	"platform-hq/proxydeploy/pkg/platform"
	"platform-hq/proxydeploy/pkg/platform/apimanager"
	"platform-hq/proxydeploy/pkg/platform/cloudhub"
	"platform-hq/proxydeploy/pkg/platform/hybrid"
	"platform-hq/proxydeploy/pkg/proxygen"
)

// apiManager is the API Manager surface the orchestrator needs.
type apiManager interface {
	GetEnvironmentAPI(ctx context.Context, s platform.Session, environmentAPIID int) (*apimanager.EnvironmentAPI, error)
	CreateProxyDeployment(ctx context.Context, s platform.Session, environmentAPIID int, draft *apimanager.ProxyDeployment) (*apimanager.ProxyDeployment, error)
	UpdateProxyDeployment(ctx context.Context, s platform.Session, environmentAPIID int, deployment *apimanager.ProxyDeployment) (*apimanager.ProxyDeployment, error)
}

// artifactGenerator builds proxy artifacts. Satisfied by proxygen.Generator.
type artifactGenerator interface {
	Generate(ctx context.Context, s platform.Session, api *apimanager.EnvironmentAPI) (*proxygen.Artifact, error)
}

// cloudhubDeployer drives CloudHub deployments.
type cloudhubDeployer interface {
	Upsert(ctx context.Context, s platform.Session, info cloudhub.ApplicationInfo, opts cloudhub.UpsertOptions) (*cloudhub.Application, error)
	Deploy(ctx context.Context, s platform.Session, environmentID, name string, artifact []byte) error
}

// hybridDeployer drives hybrid deployments.
type hybridDeployer interface {
	Deploy(ctx context.Context, s platform.Session, req hybrid.Request) (*hybrid.Result, error)
}

// Recorder receives deployment outcome metrics. A nil Recorder disables
// recording.
type Recorder interface {
	RecordDeployment(targetType, outcome string, duration time.Duration)
}

// Service is the deployment orchestrator. Runs for the same environment API
// serialize on an in-process lock; everything else proceeds concurrently.
type Service struct {
	apis     apiManager
	proxies  artifactGenerator
	ch       cloudhubDeployer
	hy       hybridDeployer
	locks    *keyedMutex
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder attaches a deployment metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a deployment orchestrator.
func NewService(apis apiManager, proxies artifactGenerator, ch cloudhubDeployer, hy hybridDeployer, opts ...Option) *Service {
	svc := &Service{
		apis:    apis,
		proxies: proxies,
		ch:      ch,
		hy:      hy,
		locks:   newKeyedMutex(),
		logger:  slog.Default().With("component", "deployment"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create records a new proxy deployment and deploys it. Creation honors the
// draft's overwrite flag: without it an application name collision on
// CloudHub is an error.
func (s *Service) Create(ctx context.Context, sess platform.Session, draft *apimanager.ProxyDeployment) (*apimanager.ProxyDeployment, error) {
	release := s.locks.lock(draft.EnvironmentAPIID)
	defer release()

	api, err := s.validate(ctx, sess, draft.EnvironmentAPIID)
	if err != nil {
		return nil, err
	}

	entity, err := s.apis.CreateProxyDeployment(ctx, sess, draft.EnvironmentAPIID, draft)
	if err != nil {
		return nil, err
	}

	if err := s.deploy(ctx, sess, api, entity, entity.Overwrite); err != nil {
		return nil, err
	}
	return entity, nil
}

// Update updates an existing proxy deployment and redeploys it. Updates
// always overwrite the running application.
func (s *Service) Update(ctx context.Context, sess platform.Session, deployment *apimanager.ProxyDeployment) (*apimanager.ProxyDeployment, error) {
	release := s.locks.lock(deployment.EnvironmentAPIID)
	defer release()

	api, err := s.validate(ctx, sess, deployment.EnvironmentAPIID)
	if err != nil {
		return nil, err
	}

	entity, err := s.apis.UpdateProxyDeployment(ctx, sess, deployment.EnvironmentAPIID, deployment)
	if err != nil {
		return nil, err
	}

	if err := s.deploy(ctx, sess, api, entity, true); err != nil {
		return nil, err
	}
	return entity, nil
}

// validate fetches the environment API and rejects endpoints that cannot
// host a mule 4 proxy. An API without an endpoint passes; endpoint-less
// APIs configure their proxy out of band.
func (s *Service) validate(ctx context.Context, sess platform.Session, environmentAPIID int) (*apimanager.EnvironmentAPI, error) {
	api, err := s.apis.GetEnvironmentAPI(ctx, sess, environmentAPIID)
	if err != nil {
		return nil, err
	}
	if api.Endpoint != nil && !api.Endpoint.MuleVersion4OrAbove {
		return nil, &BadRequestError{Message: "endpoint not configured to use mule4"}
	}
	return api, nil
}

// deploy dispatches on the entity's deployment type. Unknown types are a
// recording-only deployment; the entity is stored but nothing runs. There
// is no compensation: a failed deployment leaves the entity recorded and
// the caller retries.
func (s *Service) deploy(ctx context.Context, sess platform.Session, api *apimanager.EnvironmentAPI, entity *apimanager.ProxyDeployment, overwrite bool) error {
	start := time.Now()
	var err error

	switch entity.Type {
	case apimanager.DeploymentTypeCloudHub:
		err = s.deployCloudHub(ctx, sess, api, entity, overwrite)
	case apimanager.DeploymentTypeHybrid:
		err = s.deployHybrid(ctx, sess, api, entity)
	default:
		s.logger.Debug("deployment type has no deployment flow",
			"environment_api_id", entity.EnvironmentAPIID,
			"type", entity.Type)
		return nil
	}

	s.record(entity.Type, err, time.Since(start))
	return err
}

func (s *Service) deployCloudHub(ctx context.Context, sess platform.Session, api *apimanager.EnvironmentAPI, entity *apimanager.ProxyDeployment, overwrite bool) error {
	info := cloudhub.ApplicationInfo{
		APIVersionID:   entity.EnvironmentAPIID,
		Name:           entity.ApplicationName,
		GatewayVersion: entity.GatewayVersion,
		EnvironmentID:  entity.EnvironmentID,
	}

	s.logger.Info("deploying to cloudhub",
		"environment_api_id", api.ID,
		"application", info.Name,
		"environment_id", info.EnvironmentID)

	if _, err := s.ch.Upsert(ctx, sess, info, cloudhub.UpsertOptions{IgnoreDuplicatedError: overwrite}); err != nil {
		return err
	}

	artifact, err := s.proxies.Generate(ctx, sess, api)
	if err != nil {
		return err
	}
	return s.ch.Deploy(ctx, sess, info.EnvironmentID, info.Name, artifact.Data)
}

// deployHybrid deploys to a hybrid target and writes the resulting
// application identity back onto the entity so later deployments can find
// the application again.
func (s *Service) deployHybrid(ctx context.Context, sess platform.Session, api *apimanager.EnvironmentAPI, entity *apimanager.ProxyDeployment) error {
	artifact, err := s.proxies.Generate(ctx, sess, api)
	if err != nil {
		return err
	}

	s.logger.Info("deploying to hybrid target",
		"environment_api_id", api.ID,
		"application", artifact.Name,
		"target_id", entity.TargetID)

	result, err := s.hy.Deploy(ctx, sess, hybrid.Request{
		ApplicationID: entity.ApplicationID,
		Name:          artifact.Name,
		TargetID:      entity.TargetID,
		Artifact:      artifact.Data,
	})
	if err != nil {
		return err
	}

	entity.ApplicationID = result.ApplicationID
	entity.ApplicationName = result.Name
	entity.TargetID = result.TargetID

	_, err = s.apis.UpdateProxyDeployment(ctx, sess, entity.EnvironmentAPIID, entity)
	return err
}

func (s *Service) record(targetType string, err error, duration time.Duration) {
	if s.recorder == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	s.recorder.RecordDeployment(targetType, outcome, duration)
}
