package apimanager

// Deployment target types. A proxy deployment's type is immutable for its
// lifetime and selects exactly one deployment client.
const (
	DeploymentTypeCloudHub = "CH"
	DeploymentTypeHybrid   = "HY"
)

// EnvironmentAPI describes the API version a proxy is deployed for. It is
// fetched from the API Manager and immutable within one orchestration run.
type EnvironmentAPI struct {
	ID                        int       `json:"id"`
	GroupID                   string    `json:"groupId"`
	AssetID                   string    `json:"assetId"`
	AssetVersion              string    `json:"assetVersion"`
	ProductVersion            string    `json:"productVersion"`
	InstanceLabel             string    `json:"instanceLabel"`
	AutodiscoveryInstanceName string    `json:"autodiscoveryInstanceName"`
	Endpoint                  *Endpoint `json:"endpoint"`
}

// Endpoint is the backend endpoint an API fronts. Endpoint types are http,
// https, raml and wsdl.
type Endpoint struct {
	Type                string      `json:"type"`
	URI                 string      `json:"uri"`
	ProxyURI            string      `json:"proxyUri"`
	MuleVersion4OrAbove bool        `json:"muleVersion4OrAbove"`
	ResponseTimeout     int         `json:"responseTimeout"`
	WSDLConfig          *WSDLConfig `json:"wsdlConfig"`
}

// WSDLConfig carries the service coordinates of a wsdl endpoint.
type WSDLConfig struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Port      string `json:"port"`
}

// ProxyDeployment is the API-Manager-side record of a proxy deployment.
// The API Manager owns it; this service holds a transient copy during the
// orchestration workflow.
type ProxyDeployment struct {
	ID               string `json:"id,omitempty"`
	EnvironmentAPIID int    `json:"environmentApiId"`
	ApplicationName  string `json:"applicationName,omitempty"`
	ApplicationID    string `json:"applicationId,omitempty"`
	GatewayVersion   string `json:"gatewayVersion"`
	EnvironmentID    string `json:"environmentId,omitempty"`
	Type             string `json:"type"`
	Overwrite        bool   `json:"overwrite,omitempty"`
	TargetType       string `json:"targetType,omitempty"`
	TargetID         string `json:"targetId,omitempty"`
	TargetName       string `json:"targetName,omitempty"`
}

// Environment is one environment of an organization.
type Environment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EnvironmentList is the repository API's environment listing.
type EnvironmentList struct {
	Environments []Environment `json:"environments"`
}
