package models

// Action is a short Deno/TypeScript program run by the execution engine
// against an ephemeral API key scoped to the system action user.
type Action = Resource[ActionConfig, ActionInfo]

type ActionConfig struct {
	FileContents string `json:"file_contents" bson:"file_contents"`
}

type ActionPartialConfig struct {
	FileContents *string `json:"file_contents,omitempty"`
}

type ActionInfo struct {
	LastRunAt int64 `json:"last_run_at,omitempty" bson:"last_run_at,omitempty"`
}
