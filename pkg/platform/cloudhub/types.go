package cloudhub

import "github.com/Masterminds/semver/v3"

// Application is the mapped view of a CloudHub application.
type Application struct {
	// FullDomain is the application's fully qualified domain.
	FullDomain string `json:"fullDomain"`

	// ID is the platform id of the application.
	ID string `json:"id"`

	// Name is the application's domain name.
	Name string `json:"name"`

	// Status is the platform-reported application status.
	Status string `json:"status"`

	// GatewayVersion is the runtime (mule) version the application runs on.
	GatewayVersion string `json:"gatewayVersion"`

	// SupportedVersions lists runtime versions the application may move to.
	SupportedVersions []string `json:"supportedVersions"`

	// Properties are the application's configuration properties.
	Properties map[string]string `json:"properties"`
}

// rawApplication is the platform's wire representation.
type rawApplication struct {
	FullDomain        string            `json:"fullDomain"`
	ID                string            `json:"id"`
	Domain            string            `json:"domain"`
	Status            string            `json:"status"`
	MuleVersion       string            `json:"muleVersion"`
	SupportedVersions []string          `json:"supportedVersions"`
	Properties        map[string]string `json:"properties"`
}

func (r *rawApplication) toApplication() *Application {
	return &Application{
		FullDomain:        r.FullDomain,
		ID:                r.ID,
		Name:              r.Domain,
		Status:            r.Status,
		GatewayVersion:    r.MuleVersion,
		SupportedVersions: r.SupportedVersions,
		Properties:        r.Properties,
	}
}

// applicationSpec is the create/update payload for a CloudHub application.
type applicationSpec struct {
	Domain      string            `json:"domain"`
	MuleVersion string            `json:"muleVersion"`
	Properties  map[string]string `json:"properties"`
	WorkerType  string            `json:"workerType"`
	Workers     int               `json:"workers"`
}

// MuleVersion is one runtime image as listed by the platform.
type MuleVersion struct {
	Version string `json:"version"`
	State   string `json:"state"`
}

// RuntimeVersion is a runtime image admitted by the catalog filter,
// normalized to its semver triple.
type RuntimeVersion struct {
	// Semver is the normalized version used for range matching and
	// precedence.
	Semver *semver.Version

	// Name is the image's original version string, sent verbatim as the
	// application's muleVersion.
	Name string
}

// UpsertOptions controls conflict handling during an application upsert.
type UpsertOptions struct {
	// IgnoreDuplicatedError enables the update-or-recreate recovery when
	// creation hits an existing application with the same name. When false
	// a conflict propagates to the caller.
	IgnoreDuplicatedError bool
}

// ApplicationInfo identifies the application a proxy deployment maps to.
type ApplicationInfo struct {
	// APIVersionID is the environment API id the proxy fronts.
	APIVersionID int

	// Name is the application (domain) name.
	Name string

	// GatewayVersion is the requested gateway version.
	GatewayVersion string

	// EnvironmentID is the environment to deploy into.
	EnvironmentID string
}
