package models

// Deployment runs a single container on a Server.
type Deployment = Resource[DeploymentConfig, DeploymentInfo]

// DeploymentImageKind tags DeploymentImage's polymorphic variant.
type DeploymentImageKind string

const (
	DeploymentImageBuild DeploymentImageKind = "Build"
	DeploymentImagePlain DeploymentImageKind = "Image"
)

// DeploymentImage is a tagged union: either a reference to a Build (by id,
// with an optional pinned version) or a plain registry image string.
type DeploymentImage struct {
	Kind    DeploymentImageKind `json:"type" bson:"type"`
	BuildID string              `json:"build_id,omitempty" bson:"build_id,omitempty"`
	Version string              `json:"version,omitempty" bson:"version,omitempty"` // "" = latest persisted build version
	Image   string              `json:"image,omitempty" bson:"image,omitempty"`
}

type DeploymentConfig struct {
	ServerID         string          `json:"server_id" bson:"server_id"`
	Image            DeploymentImage `json:"image" bson:"image"`
	RegistryAccount  string          `json:"registry_account,omitempty" bson:"registry_account,omitempty"`
	RedeployOnBuild  bool            `json:"redeploy_on_build" bson:"redeploy_on_build"`
	AutoUpdate       bool            `json:"auto_update" bson:"auto_update"`
	SendAlerts       bool            `json:"send_alerts" bson:"send_alerts"`
	RestartMode      string          `json:"restart_mode,omitempty" bson:"restart_mode,omitempty"`
	Environment      []EnvVar        `json:"environment" bson:"environment"`
	Ports            []string        `json:"ports" bson:"ports"`
	Volumes          []string        `json:"volumes" bson:"volumes"`
	TerminationGrace int             `json:"termination_signal_labels_time,omitempty" bson:"term_grace,omitempty"`
}

type DeploymentPartialConfig struct {
	ServerID         *string          `json:"server_id,omitempty"`
	Image            *DeploymentImage `json:"image,omitempty"`
	RegistryAccount  *string          `json:"registry_account,omitempty"`
	RedeployOnBuild  *bool            `json:"redeploy_on_build,omitempty"`
	AutoUpdate       *bool            `json:"auto_update,omitempty"`
	SendAlerts       *bool            `json:"send_alerts,omitempty"`
	RestartMode      *string          `json:"restart_mode,omitempty"`
	Environment      *[]EnvVar        `json:"environment,omitempty"`
	Ports            *[]string        `json:"ports,omitempty"`
	Volumes          *[]string        `json:"volumes,omitempty"`
	TerminationGrace *int             `json:"termination_signal_labels_time,omitempty"`
}

type EnvVar struct {
	Name  string `json:"name" bson:"name"`
	Value string `json:"value" bson:"value"`
}

// DeploymentState mirrors the container's observed docker state.
type DeploymentState string

const (
	DeploymentStateUnknown    DeploymentState = "Unknown"
	DeploymentStateNotDeployed DeploymentState = "NotDeployed"
	DeploymentStateRunning    DeploymentState = "Running"
	DeploymentStateStopped    DeploymentState = "Stopped"
	DeploymentStateRestarting DeploymentState = "Restarting"
	DeploymentStatePaused     DeploymentState = "Paused"
	DeploymentStateDead       DeploymentState = "Dead"
)

type DeploymentInfo struct {
	LastDeployedAt int64 `json:"last_deployed_at,omitempty" bson:"last_deployed_at,omitempty"`
}
