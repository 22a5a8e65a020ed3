package models

// ServerTemplate is a reusable launch specification for creating new Servers
// from a cloud provider (AWS or Hetzner flavored).
type ServerTemplate = Resource[ServerTemplateConfig, ServerTemplateInfo]

type ServerTemplateKind string

const (
	ServerTemplateAws     ServerTemplateKind = "Aws"
	ServerTemplateHetzner ServerTemplateKind = "Hetzner"
)

type ServerTemplateConfig struct {
	Kind  ServerTemplateKind  `json:"type" bson:"type"`
	Cloud CloudBuilderConfig  `json:"cloud" bson:"cloud"`
}

type ServerTemplatePartialConfig struct {
	Kind  *ServerTemplateKind `json:"type,omitempty"`
	Cloud *CloudBuilderConfig `json:"cloud,omitempty"`
}

type ServerTemplateInfo struct{}
