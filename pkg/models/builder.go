package models

// Builder resolves to the host used to run a Build: either an existing
// Server, or an ephemeral cloud instance (AWS or Hetzner) provisioned for
// the duration of the build.
type Builder = Resource[BuilderConfig, BuilderInfo]

type BuilderKind string

const (
	BuilderKindServer  BuilderKind = "Server"
	BuilderKindAws     BuilderKind = "Aws"
	BuilderKindHetzner BuilderKind = "Hetzner"
)

type BuilderConfig struct {
	Kind     BuilderKind    `json:"type" bson:"type"`
	ServerID string         `json:"server_id,omitempty" bson:"server_id,omitempty"`
	Cloud    *CloudBuilderConfig `json:"cloud,omitempty" bson:"cloud,omitempty"`
}

// CloudBuilderConfig covers both AWS EC2 and Hetzner Cloud launch
// parameters; Region is empty/ignored for Hetzner, Datacenter is empty/
// ignored for AWS.
type CloudBuilderConfig struct {
	InstanceType string `json:"instance_type" bson:"instance_type"`
	AMI          string `json:"ami,omitempty" bson:"ami,omitempty"`
	ServerType   string `json:"server_type,omitempty" bson:"server_type,omitempty"`
	Image        string `json:"image,omitempty" bson:"image,omitempty"`
	Region       string `json:"region,omitempty" bson:"region,omitempty"`
	Datacenter   string `json:"datacenter,omitempty" bson:"datacenter,omitempty"`
	SubnetID     string `json:"subnet_id,omitempty" bson:"subnet_id,omitempty"`
	KeyPairName  string `json:"key_pair_name,omitempty" bson:"key_pair_name,omitempty"`
	VolumeGB     int    `json:"volume_gb,omitempty" bson:"volume_gb,omitempty"`
}

type BuilderPartialConfig struct {
	Kind     *BuilderKind        `json:"type,omitempty"`
	ServerID *string             `json:"server_id,omitempty"`
	Cloud    *CloudBuilderConfig `json:"cloud,omitempty"`
}

type BuilderInfo struct{}
