package models

// Resource is the generic shape every kind's concrete resource embeds:
// {id, name, description, tags, base_permission, config, info, updated_at}.
// Config and Info are kind-specific (e.g. ServerConfig/ServerInfo); the
// registry (pkg/registry) is what lets CRUD/diff/sync code stay generic over
// every kind without a shared Config interface.
type Resource[Config any, Info any] struct {
	ID             string   `json:"id" bson:"_id"`
	Name           string   `json:"name" bson:"name"`
	Description    string   `json:"description" bson:"description"`
	Tags           []string `json:"tags" bson:"tags"`
	BasePermission Level    `json:"base_permission" bson:"base_permission"`
	Config         Config   `json:"config" bson:"config"`
	Info           Info     `json:"info" bson:"info"`
	UpdatedAt      int64    `json:"updated_at" bson:"updated_at"`
}

// Target builds the ResourceTarget for this resource given its kind.
func (r Resource[Config, Info]) Target(kind Kind) ResourceTarget {
	return NewTarget(kind, r.ID)
}

// Tag is a user-defined label referenced by id from resources but declared
// and looked up by name in TOML.
type Tag struct {
	ID    string `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Color string `json:"color,omitempty" bson:"color,omitempty"`
}

// Variable is a named string from the variable store, referenced as
// [[name]] (plain) or [[name]]! (secret) in interpolatable strings. Secret
// values are redacted from persisted logs by pkg/redact before anything
// containing them is written to an Update.
type Variable struct {
	Name     string `json:"name" bson:"_id"`
	Value    string `json:"value" bson:"value"`
	IsSecret bool   `json:"is_secret" bson:"is_secret"`
}
