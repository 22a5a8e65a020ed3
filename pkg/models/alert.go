package models

// SeverityLevel is an Alert's severity, distinct from permission Level.
type SeverityLevel string

const (
	SeverityOk       SeverityLevel = "Ok"
	SeverityWarning  SeverityLevel = "Warning"
	SeverityCritical SeverityLevel = "Critical"
)

// AlertData is the per-variant payload carried by an Alert. Only the field(s)
// matching Alert.Variant are populated; the rest are zero values. Go has no
// tagged union, so this mirrors the original Rust enum as one struct with a
// discriminant plus per-variant sub-structs, the same shape configdiff uses
// for partial configs.
type AlertData struct {
	ServerUnreachable              *ServerUnreachableData              `json:"server_unreachable,omitempty" bson:"server_unreachable,omitempty"`
	ServerCPU                      *ServerThresholdData                `json:"server_cpu,omitempty" bson:"server_cpu,omitempty"`
	ServerMem                      *ServerThresholdData                `json:"server_mem,omitempty" bson:"server_mem,omitempty"`
	ServerDisk                     *ServerDiskData                     `json:"server_disk,omitempty" bson:"server_disk,omitempty"`
	ContainerStateChange           *ContainerStateChangeData           `json:"container_state_change,omitempty" bson:"container_state_change,omitempty"`
	StackStateChange               *StackStateChangeData               `json:"stack_state_change,omitempty" bson:"stack_state_change,omitempty"`
	DeploymentImageUpdateAvailable *DeploymentImageUpdateAvailableData `json:"deployment_image_update_available,omitempty" bson:"deployment_image_update_available,omitempty"`
	DeploymentAutoUpdated          *DeploymentAutoUpdatedData          `json:"deployment_auto_updated,omitempty" bson:"deployment_auto_updated,omitempty"`
	StackImageUpdateAvailable      *StackImageUpdateAvailableData      `json:"stack_image_update_available,omitempty" bson:"stack_image_update_available,omitempty"`
	StackAutoUpdated               *StackAutoUpdatedData               `json:"stack_auto_updated,omitempty" bson:"stack_auto_updated,omitempty"`
	ResourceSyncPendingUpdates     *ResourceSyncPendingUpdatesData     `json:"resource_sync_pending_updates,omitempty" bson:"resource_sync_pending_updates,omitempty"`
	BuildFailed                    *BuildFailedData                    `json:"build_failed,omitempty" bson:"build_failed,omitempty"`
	RepoBuildFailed                *RepoBuildFailedData                `json:"repo_build_failed,omitempty" bson:"repo_build_failed,omitempty"`
	AwsBuilderTerminationFailed    *BuilderTerminationFailedData        `json:"aws_builder_termination_failed,omitempty" bson:"aws_builder_termination_failed,omitempty"`
	HetznerBuilderTerminationFailed *BuilderTerminationFailedData       `json:"hetzner_builder_termination_failed,omitempty" bson:"hetzner_builder_termination_failed,omitempty"`
	Test                           *TestData                           `json:"test,omitempty" bson:"test,omitempty"`
}

type ServerUnreachableData struct {
	ID     string `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	Region string `json:"region,omitempty" bson:"region,omitempty"`
	Err    string `json:"err,omitempty" bson:"err,omitempty"`
}

type ServerThresholdData struct {
	ID      string  `json:"id" bson:"id"`
	Name    string  `json:"name" bson:"name"`
	Percent float64 `json:"percentage" bson:"percentage"`
}

type ServerDiskData struct {
	ID      string  `json:"id" bson:"id"`
	Name    string  `json:"name" bson:"name"`
	Path    string  `json:"path" bson:"path"`
	Percent float64 `json:"percentage" bson:"percentage"`
}

type ContainerStateChangeData struct {
	ID        string `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	ServerID  string `json:"server_id" bson:"server_id"`
	Container string `json:"container_name" bson:"container_name"`
	From      string `json:"from" bson:"from"`
	To        string `json:"to" bson:"to"`
}

type StackStateChangeData struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	ServerID string `json:"server_id" bson:"server_id"`
	From     string `json:"from" bson:"from"`
	To       string `json:"to" bson:"to"`
}

type DeploymentImageUpdateAvailableData struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name"`
	Image string `json:"image" bson:"image"`
}

type DeploymentAutoUpdatedData struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Image    string `json:"image" bson:"image"`
	UpdateID string `json:"update_id" bson:"update_id"`
}

type StackImageUpdateAvailableData struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Service  string `json:"service,omitempty" bson:"service,omitempty"`
	Image    string `json:"image" bson:"image"`
}

type StackAutoUpdatedData struct {
	ID       string   `json:"id" bson:"id"`
	Name     string   `json:"name" bson:"name"`
	Images   []string `json:"images" bson:"images"`
	UpdateID string   `json:"update_id" bson:"update_id"`
}

type ResourceSyncPendingUpdatesData struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

type BuildFailedData struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Version  string `json:"version" bson:"version"`
	UpdateID string `json:"update_id" bson:"update_id"`
}

type RepoBuildFailedData struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	UpdateID string `json:"update_id" bson:"update_id"`
}

type BuilderTerminationFailedData struct {
	ID         string `json:"id" bson:"id"`
	InstanceID string `json:"instance_id" bson:"instance_id"`
	Err        string `json:"err" bson:"err"`
}

type TestData struct {
	ID string `json:"id" bson:"id"`
}

// Alert is a detected condition. A later Ok-level alert on the same
// (Target, Variant) pair resolves any still-unresolved prior alert there,
// per the dedup rule
type Alert struct {
	ID         string         `json:"id" bson:"_id"`
	Ts         int64          `json:"ts" bson:"ts"`
	Resolved   bool           `json:"resolved" bson:"resolved"`
	ResolvedTs int64          `json:"resolved_ts,omitempty" bson:"resolved_ts,omitempty"`
	Level      SeverityLevel  `json:"level" bson:"level"`
	Target     ResourceTarget `json:"target" bson:"target"`
	Variant    AlertVariant   `json:"variant" bson:"variant"`
	Data       AlertData      `json:"data" bson:"data"`
}
