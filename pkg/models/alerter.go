package models

// Alerter is a configured alert destination: Slack, Discord, or a generic
// custom JSON webhook.
type Alerter = Resource[AlerterConfig, AlerterInfo]

type AlerterEndpointKind string

const (
	AlerterSlack   AlerterEndpointKind = "Slack"
	AlerterDiscord AlerterEndpointKind = "Discord"
	AlerterCustom  AlerterEndpointKind = "Custom"
)

// AlertVariant names the Alert.data discriminant this alerter is configured
// to forward. Mirrors AlertData's tag set in alert.go.
type AlertVariant string

const (
	AlertServerUnreachable              AlertVariant = "ServerUnreachable"
	AlertServerCPU                      AlertVariant = "ServerCpu"
	AlertServerMem                      AlertVariant = "ServerMem"
	AlertServerDisk                     AlertVariant = "ServerDisk"
	AlertContainerStateChange           AlertVariant = "ContainerStateChange"
	AlertStackStateChange               AlertVariant = "StackStateChange"
	AlertDeploymentImageUpdateAvailable AlertVariant = "DeploymentImageUpdateAvailable"
	AlertDeploymentAutoUpdated          AlertVariant = "DeploymentAutoUpdated"
	AlertStackImageUpdateAvailable      AlertVariant = "StackImageUpdateAvailable"
	AlertStackAutoUpdated               AlertVariant = "StackAutoUpdated"
	AlertResourceSyncPendingUpdates     AlertVariant = "ResourceSyncPendingUpdates"
	AlertBuildFailed                    AlertVariant = "BuildFailed"
	AlertRepoBuildFailed                AlertVariant = "RepoBuildFailed"
	AlertAwsBuilderTerminationFailed    AlertVariant = "AwsBuilderTerminationFailed"
	AlertHetznerBuilderTerminationFailed AlertVariant = "HetznerBuilderTerminationFailed"
	AlertTest                           AlertVariant = "Test"
)

// ResourceTargetFilter is an allow-list/deny-list pair restricting which
// targets an alerter accepts, dispatch.
type ResourceTargetFilter struct {
	AllowAll bool             `json:"allow_all" bson:"allow_all"`
	Allow    []ResourceTarget `json:"allow,omitempty" bson:"allow,omitempty"`
	Deny     []ResourceTarget `json:"deny,omitempty" bson:"deny,omitempty"`
}

func (f ResourceTargetFilter) Accepts(t ResourceTarget) bool {
	for _, d := range f.Deny {
		if d == t {
			return false
		}
	}
	if f.AllowAll {
		return true
	}
	for _, a := range f.Allow {
		if a == t {
			return true
		}
	}
	return false
}

type AlerterConfig struct {
	Kind            AlerterEndpointKind   `json:"type" bson:"type"`
	Enabled         bool                  `json:"enabled" bson:"enabled"`
	SlackURLEnvVar  string                `json:"slack_url_env_var,omitempty" bson:"slack_url_env_var,omitempty"`
	SlackChannel    string                `json:"slack_channel,omitempty" bson:"slack_channel,omitempty"`
	DiscordURLEnvVar string               `json:"discord_url_env_var,omitempty" bson:"discord_url_env_var,omitempty"`
	CustomURLEnvVar string                `json:"custom_url_env_var,omitempty" bson:"custom_url_env_var,omitempty"`
	ResourceTargets ResourceTargetFilter  `json:"resource_targets" bson:"resource_targets"`
	AlertTypes      []AlertVariant        `json:"alert_types" bson:"alert_types"`
}

type AlerterPartialConfig struct {
	Kind             *AlerterEndpointKind  `json:"type,omitempty"`
	Enabled          *bool                 `json:"enabled,omitempty"`
	SlackURLEnvVar   *string               `json:"slack_url_env_var,omitempty"`
	SlackChannel     *string               `json:"slack_channel,omitempty"`
	DiscordURLEnvVar *string               `json:"discord_url_env_var,omitempty"`
	CustomURLEnvVar  *string               `json:"custom_url_env_var,omitempty"`
	ResourceTargets  *ResourceTargetFilter `json:"resource_targets,omitempty"`
	AlertTypes       *[]AlertVariant       `json:"alert_types,omitempty"`
}

func (c AlerterConfig) Accepts(t ResourceTarget, variant AlertVariant) bool {
	if !c.Enabled {
		return false
	}
	found := false
	for _, v := range c.AlertTypes {
		if v == variant {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	return c.ResourceTargets.Accepts(t)
}

type AlerterInfo struct{}
