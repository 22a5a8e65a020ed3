package models

// Build compiles a repo into a container image via an ephemeral or
// persistent builder.
type Build = Resource[BuildConfig, BuildInfo]

type BuildConfig struct {
	BuilderID       string   `json:"builder_id" bson:"builder_id"`
	RepoURL         string   `json:"repo_url" bson:"repo_url"`
	Branch          string   `json:"branch,omitempty" bson:"branch,omitempty"`
	BuildPath       string   `json:"build_path,omitempty" bson:"build_path,omitempty"`
	Dockerfile      string   `json:"dockerfile,omitempty" bson:"dockerfile,omitempty"`
	ImageName       string   `json:"image_name" bson:"image_name"`
	RegistryAccount string   `json:"registry_account,omitempty" bson:"registry_account,omitempty"`
	BuildArgs       []EnvVar `json:"build_args" bson:"build_args"`
	Version         string   `json:"version" bson:"version"` // semver string, bumped on each successful RunBuild
}

type BuildPartialConfig struct {
	BuilderID       *string   `json:"builder_id,omitempty"`
	RepoURL         *string   `json:"repo_url,omitempty"`
	Branch          *string   `json:"branch,omitempty"`
	BuildPath       *string   `json:"build_path,omitempty"`
	Dockerfile      *string   `json:"dockerfile,omitempty"`
	ImageName       *string   `json:"image_name,omitempty"`
	RegistryAccount *string   `json:"registry_account,omitempty"`
	BuildArgs       *[]EnvVar `json:"build_args,omitempty"`
	Version         *string   `json:"version,omitempty"`
}

type BuildInfo struct {
	LastBuiltAt int64 `json:"last_built_at,omitempty" bson:"last_built_at,omitempty"`
}
