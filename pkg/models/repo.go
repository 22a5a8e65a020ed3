package models

// Repo is a standalone git checkout managed on a periphery host, independent
// of any Build.
type Repo = Resource[RepoConfig, RepoInfo]

type RepoConfig struct {
	ServerID   string `json:"server_id" bson:"server_id"`
	RepoURL    string `json:"repo_url" bson:"repo_url"`
	Branch     string `json:"branch,omitempty" bson:"branch,omitempty"`
	Path       string `json:"path,omitempty" bson:"path,omitempty"`
	OnClone    string `json:"on_clone,omitempty" bson:"on_clone,omitempty"`
	OnPull     string `json:"on_pull,omitempty" bson:"on_pull,omitempty"`
	WebhookSecretEnvVar string `json:"webhook_secret_env_var,omitempty" bson:"webhook_secret_env_var,omitempty"`
}

type RepoPartialConfig struct {
	ServerID            *string `json:"server_id,omitempty"`
	RepoURL             *string `json:"repo_url,omitempty"`
	Branch              *string `json:"branch,omitempty"`
	Path                *string `json:"path,omitempty"`
	OnClone             *string `json:"on_clone,omitempty"`
	OnPull              *string `json:"on_pull,omitempty"`
	WebhookSecretEnvVar *string `json:"webhook_secret_env_var,omitempty"`
}

type RepoInfo struct {
	LastPulledAt int64 `json:"last_pulled_at,omitempty" bson:"last_pulled_at,omitempty"`
}
