package hybrid

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"platform-hq/proxydeploy/pkg/platform"
)

// Request describes one hybrid deployment. ApplicationID is empty when the
// proxy has never been deployed to a hybrid target.
type Request struct {
	ApplicationID string
	Name          string
	TargetID      string
	Artifact      []byte
}

// Result is the deployed application's identity, written back to the proxy
// deployment entity so later deployments can find the application again.
type Result struct {
	ApplicationID string
	Name          string
	TargetID      string
	Status        string
	DesiredStatus string
}

// Deployer drives hybrid deployments: locate the application if it exists,
// then update it with the new artifact or create it.
type Deployer struct {
	client *Client
	logger *slog.Logger
}

// NewDeployer creates a hybrid deployer.
func NewDeployer(client *Client) *Deployer {
	return &Deployer{
		client: client,
		logger: slog.Default().With("component", "hybrid.deployer"),
	}
}

// Deploy deploys the artifact to the request's target. A recorded
// application id that still resolves means the proxy has been deployed
// before: the target is queried for an application with the proxy's name,
// which is updated in place, or created when the proxy moved to a target it
// never ran on. A stale or absent id creates directly; a create collision
// then means a foreign application owns the name on the target and must be
// removed by hand.
func (d *Deployer) Deploy(ctx context.Context, s platform.Session, req Request) (*Result, error) {
	known, err := d.isKnown(ctx, s, req)
	if err != nil {
		return nil, err
	}

	var app *Application
	if known {
		app, err = d.redeploy(ctx, s, req)
	} else {
		d.logger.Info("creating hybrid application", "name", req.Name, "target_id", req.TargetID)
		app, err = d.client.CreateApplication(ctx, s, req.Name, req.TargetID, req.Artifact)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		ApplicationID: strconv.FormatInt(app.ID, 10),
		Name:          app.Artifact.Name,
		TargetID:      strconv.FormatInt(app.Target.ID, 10),
		Status:        app.EffectiveStatus(),
		DesiredStatus: app.DesiredStatus,
	}, nil
}

// isKnown reports whether the recorded application id still resolves. A
// stale id is not an error; the application may have been deleted out of
// band.
func (d *Deployer) isKnown(ctx context.Context, s platform.Session, req Request) (bool, error) {
	if req.ApplicationID == "" {
		return false, nil
	}
	if _, err := d.client.GetApplication(ctx, s, req.ApplicationID); err != nil {
		var notFound *platform.NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// redeploy updates the application carrying the proxy's name on the
// requested target, or creates one when no such application exists there.
func (d *Deployer) redeploy(ctx context.Context, s platform.Session, req Request) (*Application, error) {
	apps, err := d.client.ApplicationsByQuery(ctx, s, req.Name, req.TargetID)
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		d.logger.Info("creating hybrid application", "name", req.Name, "target_id", req.TargetID)
		return d.client.CreateApplication(ctx, s, req.Name, req.TargetID, req.Artifact)
	}
	applicationID := strconv.FormatInt(apps[0].ID, 10)
	d.logger.Info("updating hybrid application", "application_id", applicationID, "name", req.Name)
	return d.client.UpdateApplication(ctx, s, applicationID, req.Name, req.Artifact)
}
