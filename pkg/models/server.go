package models

// Server is a periphery-running host.
type Server = Resource[ServerConfig, ServerInfo]

type AlertTier struct {
	Threshold float64 `json:"threshold" bson:"threshold"`
	Critical  bool    `json:"critical" bson:"critical"`
}

// ServerConfig is the fully-populated config for a Server resource.
type ServerConfig struct {
	Address         string      `json:"address" bson:"address"`
	Region          string      `json:"region" bson:"region"`
	Enabled         bool        `json:"enabled" bson:"enabled"`
	TimeoutSeconds  int         `json:"timeout_seconds" bson:"timeout_seconds"`
	PasskeyEnvVar   string      `json:"passkey_env_var,omitempty" bson:"passkey_env_var,omitempty"`
	CPUAlert        []AlertTier `json:"cpu_alert" bson:"cpu_alert"`
	MemAlert        []AlertTier `json:"mem_alert" bson:"mem_alert"`
	DiskAlert       []AlertTier `json:"disk_alert" bson:"disk_alert"`
	StatsMonitoring bool        `json:"stats_monitoring" bson:"stats_monitoring"`
	// TemplateID, when set, names the ServerTemplate this Server was (or
	// should be) launched from; LaunchServer resolves it to pick a cloud
	// backend and params. Empty for servers that were never cloud-launched.
	TemplateID string `json:"template_id,omitempty" bson:"template_id,omitempty"`
}

// ServerPartialConfig mirrors ServerConfig with every field optional.
type ServerPartialConfig struct {
	Address         *string      `json:"address,omitempty"`
	Region          *string      `json:"region,omitempty"`
	Enabled         *bool        `json:"enabled,omitempty"`
	TimeoutSeconds  *int         `json:"timeout_seconds,omitempty"`
	PasskeyEnvVar   *string      `json:"passkey_env_var,omitempty"`
	CPUAlert        *[]AlertTier `json:"cpu_alert,omitempty"`
	MemAlert        *[]AlertTier `json:"mem_alert,omitempty"`
	DiskAlert       *[]AlertTier `json:"disk_alert,omitempty"`
	StatsMonitoring *bool        `json:"stats_monitoring,omitempty"`
	TemplateID      *string      `json:"template_id,omitempty"`
}

// ServerState is the cached reachability state computed by the monitoring
// cache, not persisted as part of ServerConfig.
type ServerState string

const (
	ServerStateOk       ServerState = "Ok"
	ServerStateNotOk    ServerState = "NotOk"
	ServerStateDisabled ServerState = "Disabled"
)

// ServerInfo holds derived, monitoring-cache-sourced fields surfaced on list
// projections; it is not user-editable config.
type ServerInfo struct{}
