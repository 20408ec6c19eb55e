package hybrid

// Application statuses the deployer interprets. Any other status is passed
// through untouched.
const (
	StatusPartiallyStarted = "PARTIALLY_STARTED"
	StatusDeploymentFailed = "DEPLOYMENT_FAILED"
)

// Application is a hybrid runtime application as the Runtime Manager
// reports it. The application name lives on the deployed artifact, not on
// the application itself.
type Application struct {
	ID              int64            `json:"id"`
	Artifact        Artifact         `json:"artifact"`
	Status          string           `json:"lastReportedStatus"`
	DesiredStatus   string           `json:"desiredStatus"`
	Target          Target           `json:"target"`
	ServerArtifacts []ServerArtifact `json:"serverArtifacts"`
}

// Artifact is the deployable bundle an application runs.
type Artifact struct {
	Name string `json:"name"`
}

// Target is the server or server group an application is deployed to.
type Target struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ServerArtifact is the per-server deployment state of an application on a
// server group target.
type ServerArtifact struct {
	ID     int64  `json:"id"`
	Status string `json:"lastReportedStatus"`
}

// EffectiveStatus folds per-server artifact states into the application
// status: a partially started application with a failed artifact is a
// failed deployment, not one in progress.
func (a *Application) EffectiveStatus() string {
	if a.Status != StatusPartiallyStarted {
		return a.Status
	}
	for _, artifact := range a.ServerArtifacts {
		if artifact.Status == StatusDeploymentFailed {
			return StatusDeploymentFailed
		}
	}
	return a.Status
}
