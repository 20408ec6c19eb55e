package cloudhub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"

	"platform-hq/proxydeploy/pkg/config"
	"platform-hq/proxydeploy/pkg/gatewayversion"
	"platform-hq/proxydeploy/pkg/platform"
	"platform-hq/proxydeploy/pkg/platform/apimanager"
	"platform-hq/proxydeploy/pkg/platform/coreservices"
)

// Application properties injected into every deployed proxy so the gateway
// runtime can reach the platform.
const (
	propPlatformBaseURI   = "anypoint.platform.base_uri"
	propAnalyticsBaseURI  = "anypoint.platform.analytics_base_uri"
	propPlatformClientID  = "anypoint.platform.client_id"
	propPlatformClientKey = "anypoint.platform.client_secret"
)

// environmentLister lists the environments of the session's organization.
// Satisfied by the API Manager client.
type environmentLister interface {
	GetAllEnvironments(ctx context.Context, s platform.Session) (*apimanager.EnvironmentList, error)
}

// credentialSource resolves platform client credentials for a session.
// Satisfied by the Core Services client.
type credentialSource interface {
	CredentialsFor(ctx context.Context, s platform.Session) (*coreservices.Credentials, error)
}

// upsertState is one step of the application upsert flow. Transitions only
// move forward; every state is visited at most once per upsert.
type upsertState int

const (
	stateResolving upsertState = iota
	stateCreating
	stateUpdating
	stateRecreating
	stateDone
	stateFailed
)

func (s upsertState) String() string {
	switch s {
	case stateResolving:
		return "resolving"
	case stateCreating:
		return "creating"
	case stateUpdating:
		return "updating"
	case stateRecreating:
		return "recreating"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// Deployer drives application lifecycle flows against CloudHub: the upsert
// state machine, cross-environment deletion and artifact deployment.
type Deployer struct {
	client       *Client
	environments environmentLister
	credentials  credentialSource
	catalog      *gatewayversion.Catalog
	cfg          config.CloudHubConfig
	logger       *slog.Logger

	// Poll and fan-out knobs, fixed in production, overridden in tests.
	sleep             func(ctx context.Context, d time.Duration) error
	pollAttempts      int
	pollInterval      time.Duration
	deleteConcurrency int
}

// NewDeployer creates a CloudHub deployer.
func NewDeployer(client *Client, environments environmentLister, credentials credentialSource, catalog *gatewayversion.Catalog, cfg config.CloudHubConfig) *Deployer {
	return &Deployer{
		client:            client,
		environments:      environments,
		credentials:       credentials,
		catalog:           catalog,
		cfg:               cfg,
		logger:            slog.Default().With("component", "cloudhub.deployer"),
		sleep:             sleepContext,
		pollAttempts:      10,
		pollInterval:      time.Second,
		deleteConcurrency: 8,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Upsert creates or replaces the application described by info. Creation
// conflicts recover into an in-place update when opts.IgnoreDuplicatedError
// is set; an update rejected with a permission error recovers by deleting
// the name from every environment of the organization and creating fresh.
// Any other error is terminal.
func (d *Deployer) Upsert(ctx context.Context, s platform.Session, info ApplicationInfo, opts UpsertOptions) (*Application, error) {
	var (
		state   = stateResolving
		spec    applicationSpec
		app     *Application
		lastErr error
	)

	for state != stateDone && state != stateFailed {
		previous := state

		switch state {
		case stateResolving:
			resolved, err := d.resolveSpec(ctx, s, info)
			if err != nil {
				lastErr = err
				state = stateFailed
				break
			}
			spec = resolved
			state = stateCreating

		case stateCreating:
			created, err := d.client.CreateApplication(ctx, s, info.EnvironmentID, spec)
			if err == nil {
				app = created
				state = stateDone
				break
			}
			var conflict *platform.ConflictError
			if errors.As(err, &conflict) && opts.IgnoreDuplicatedError {
				state = stateUpdating
				break
			}
			lastErr = err
			state = stateFailed

		case stateUpdating:
			updated, err := d.updateExisting(ctx, s, info.EnvironmentID, spec)
			if err == nil {
				app = updated
				state = stateDone
				break
			}
			var forbidden *platform.ForbiddenError
			if errors.As(err, &forbidden) {
				state = stateRecreating
				break
			}
			lastErr = err
			state = stateFailed

		case stateRecreating:
			if err := d.deleteFromAllEnvironments(ctx, s, spec.Domain); err != nil {
				lastErr = err
				state = stateFailed
				break
			}
			created, err := d.client.CreateApplication(ctx, s, info.EnvironmentID, spec)
			if err != nil {
				lastErr = err
				state = stateFailed
				break
			}
			app = created
			state = stateDone
		}

		d.logger.Debug("upsert transition",
			"application", info.Name,
			"from", previous.String(),
			"to", state.String())
	}

	if state == stateFailed {
		return nil, lastErr
	}
	return app, nil
}

// resolveSpec assembles the create/update payload: the runtime image
// satisfying the requested gateway version and the platform properties
// with resolved client credentials.
func (d *Deployer) resolveSpec(ctx context.Context, s platform.Session, info ApplicationInfo) (applicationSpec, error) {
	runtime, err := d.resolveRuntime(ctx, s, info.GatewayVersion)
	if err != nil {
		return applicationSpec{}, err
	}

	scoped := s.WithEnvironment(info.EnvironmentID)
	creds, err := d.credentials.CredentialsFor(ctx, scoped)
	if err != nil {
		return applicationSpec{}, err
	}

	return applicationSpec{
		Domain:      info.Name,
		MuleVersion: runtime.Name,
		Properties: map[string]string{
			propPlatformBaseURI:   d.cfg.PlatformBaseURI,
			propAnalyticsBaseURI:  d.cfg.AnalyticsIngestURI,
			propPlatformClientID:  creds.ClientID,
			propPlatformClientKey: creds.ClientSecret,
		},
		WorkerType: d.cfg.WorkerType,
		Workers:    1,
	}, nil
}

// resolveRuntime picks the runtime image for the requested gateway version.
// A version known to the catalog widens to the catalog entry's whole range;
// an unknown version is used as a literal range. When nothing satisfies,
// the sentinel's empty image name is returned and the platform rejects it
// at create time.
func (d *Deployer) resolveRuntime(ctx context.Context, s platform.Session, gatewayVersion string) (RuntimeVersion, error) {
	var wanted *semver.Constraints
	var err error
	if entry := d.catalog.Resolve(gatewayVersion); entry != nil {
		wanted, err = semver.NewConstraint(entry.Condition)
	} else {
		wanted, err = semver.NewConstraint(gatewayversion.Normalize(gatewayVersion))
	}
	if err != nil {
		return RuntimeVersion{}, &platform.ServiceError{
			Backend:    Backend,
			StatusCode: http.StatusBadRequest,
			Message:    "unusable gateway version " + gatewayVersion,
		}
	}

	supported, err := semver.NewConstraint(d.cfg.SupportedRuntimeVersions)
	if err != nil {
		return RuntimeVersion{}, err
	}

	catalog, err := d.client.ListMuleVersions(ctx, s)
	if err != nil {
		return RuntimeVersion{}, err
	}

	candidates := filterRuntimeVersions(catalog, supported)
	return FindSuitableVersion(candidates, wanted), nil
}

// updateExisting merges the resolved properties over the live application's
// properties and updates it in place.
func (d *Deployer) updateExisting(ctx context.Context, s platform.Session, environmentID string, spec applicationSpec) (*Application, error) {
	existing, err := d.client.GetApplication(ctx, s, environmentID, spec.Domain)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(existing.Properties)+len(spec.Properties))
	for key, value := range existing.Properties {
		merged[key] = value
	}
	for key, value := range spec.Properties {
		merged[key] = value
	}

	return d.client.UpdateApplication(ctx, s, environmentID, spec.Domain, spec.MuleVersion, merged)
}

// deleteFromAllEnvironments races the confirmed delete across every
// environment of the organization. The name lives in exactly one
// environment, so the first success wins and cancels the rest. When every
// attempt fails the name belongs to an organization the caller cannot see,
// which surfaces as an authorization failure.
func (d *Deployer) deleteFromAllEnvironments(ctx context.Context, s platform.Session, name string) error {
	list, err := d.environments.GetAllEnvironments(ctx, s)
	if err != nil {
		return err
	}
	envs := list.Environments
	if len(envs) == 0 {
		return &platform.UnauthorizedError{Backend: Backend}
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, d.deleteConcurrency)
	results := make(chan error, len(envs))

	for _, env := range envs {
		go func(environmentID string) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-raceCtx.Done():
				results <- raceCtx.Err()
				return
			}
			results <- d.DeleteApplication(raceCtx, s, environmentID, name)
		}(env.ID)
	}

	failed := 0
	for range envs {
		if err := <-results; err == nil {
			cancel()
			return nil
		}
		failed++
	}

	d.logger.Warn("application not deletable in any environment",
		"application", name,
		"environments", failed)
	return &platform.UnauthorizedError{Backend: Backend}
}

// DeleteApplication deletes the application and polls until the platform
// stops reporting it. An application still visible after the poll budget
// raises DeleteTimeoutError. The delete 404ing fails the call: the name
// does not exist in this environment, so this environment cannot satisfy
// the cross-environment race in deleteFromAllEnvironments. Only a 404
// during the confirmation poll counts as deleted.
func (d *Deployer) DeleteApplication(ctx context.Context, s platform.Session, environmentID, name string) error {
	if err := d.client.DeleteApplicationRaw(ctx, s, environmentID, name); err != nil {
		return err
	}

	for attempt := 0; attempt < d.pollAttempts; attempt++ {
		if err := d.sleep(ctx, d.pollInterval); err != nil {
			return err
		}
		_, err := d.client.GetApplication(ctx, s, environmentID, name)
		if err != nil {
			var notFound *platform.NotFoundError
			if errors.As(err, &notFound) {
				return nil
			}
			return err
		}
	}
	return &DeleteTimeoutError{ApplicationName: name, EnvironmentID: environmentID}
}

// Deploy uploads the proxy artifact as the application's deployment file
// and starts the application. An already running application is success.
func (d *Deployer) Deploy(ctx context.Context, s platform.Session, environmentID, name string, artifact []byte) error {
	if err := d.client.UploadArtifact(ctx, s, environmentID, name, artifact); err != nil {
		return err
	}
	return d.client.Start(ctx, s, environmentID, name)
}
