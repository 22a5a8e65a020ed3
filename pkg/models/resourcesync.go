package models

// ResourceSync declares a Git-backed TOML source of truth that the sync
// engine reconciles persisted resources against.
type ResourceSync = Resource[ResourceSyncConfig, ResourceSyncInfo]

type ResourceSyncConfig struct {
	RepoURL        string   `json:"repo_url" bson:"repo_url"`
	Branch         string   `json:"branch,omitempty" bson:"branch,omitempty"`
	ResourcePath   []string `json:"resource_path" bson:"resource_path"`
	Delete         bool     `json:"delete" bson:"delete"`
	MatchTags      []string `json:"match_tags" bson:"match_tags"`
	WebhookSecretEnvVar string `json:"webhook_secret_env_var,omitempty" bson:"webhook_secret_env_var,omitempty"`
}

type ResourceSyncPartialConfig struct {
	RepoURL             *string   `json:"repo_url,omitempty"`
	Branch              *string   `json:"branch,omitempty"`
	ResourcePath        *[]string `json:"resource_path,omitempty"`
	Delete              *bool     `json:"delete,omitempty"`
	MatchTags           *[]string `json:"match_tags,omitempty"`
	WebhookSecretEnvVar *string   `json:"webhook_secret_env_var,omitempty"`
}

// SyncUpdateCounts summarizes one kind's contribution to a plan: how many
// resources would be created/updated/deleted, plus the rendered log lines.
type SyncUpdateCounts struct {
	ToCreate int      `json:"to_create"`
	ToUpdate int      `json:"to_update"`
	ToDelete int       `json:"to_delete"`
	Log      []string `json:"log"`
}

// PendingSyncData is the Ok branch of ResourceSyncInfo.Pending.Data.
type PendingSyncData struct {
	ByKind        map[Kind]SyncUpdateCounts `json:"by_kind"`
	DeployUpdates []string                  `json:"deploy_updates,omitempty"`
}

// PendingSync is the summary written onto a ResourceSync's info.pending by
// the refresh pass.
type PendingSync struct {
	Hash    string           `json:"hash"`
	Message string           `json:"message"`
	Data    *PendingSyncData `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type ResourceSyncInfo struct {
	Pending      *PendingSync `json:"pending,omitempty" bson:"pending,omitempty"`
	LastSyncTs   int64        `json:"last_sync_ts,omitempty" bson:"last_sync_ts,omitempty"`
	LastSyncHash string       `json:"last_sync_hash,omitempty" bson:"last_sync_hash,omitempty"`
}
