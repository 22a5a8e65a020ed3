package models

// Stack is a docker-compose project deployed across one or more services on
// a Server.
type Stack = Resource[StackConfig, StackInfo]

type StackConfig struct {
	ServerID                   string   `json:"server_id" bson:"server_id"`
	RepoURL                    string   `json:"repo_url,omitempty" bson:"repo_url,omitempty"`
	Branch                     string   `json:"branch,omitempty" bson:"branch,omitempty"`
	FilePaths                  []string `json:"file_paths" bson:"file_paths"`
	IgnoreServices             []string `json:"ignore_services" bson:"ignore_services"`
	AutoUpdate                 bool     `json:"auto_update" bson:"auto_update"`
	SendAlerts                 bool     `json:"send_alerts" bson:"send_alerts"`
	RegistryAccount            string   `json:"registry_account,omitempty" bson:"registry_account,omitempty"`
	ComposeContents            string   `json:"compose_contents,omitempty" bson:"compose_contents,omitempty"`
}

type StackPartialConfig struct {
	ServerID         *string   `json:"server_id,omitempty"`
	RepoURL          *string   `json:"repo_url,omitempty"`
	Branch           *string   `json:"branch,omitempty"`
	FilePaths        *[]string `json:"file_paths,omitempty"`
	IgnoreServices   *[]string `json:"ignore_services,omitempty"`
	AutoUpdate       *bool     `json:"auto_update,omitempty"`
	SendAlerts       *bool     `json:"send_alerts,omitempty"`
	RegistryAccount  *string   `json:"registry_account,omitempty"`
	ComposeContents  *string   `json:"compose_contents,omitempty"`
}

// StackServiceNames is the {service, container_name, image} triple a
// compose file declares per service. pkg/monitor does not use it: it
// matches containers against the stack's own name.
type StackServiceNames struct {
	Service       string `json:"service"`
	ContainerName string `json:"container_name"`
	Image         string `json:"image"`
}

type StackState string

const (
	StackStateUnknown      StackState = "Unknown"
	StackStateRunning      StackState = "Running"
	StackStatePartial      StackState = "Partial"
	StackStateStopped      StackState = "Stopped"
	StackStateDown         StackState = "Down"
	StackStateRestarting   StackState = "Restarting"
)

type StackInfo struct {
	LastDeployedAt int64 `json:"last_deployed_at,omitempty" bson:"last_deployed_at,omitempty"`
	DeployedContentsHash string `json:"deployed_contents_hash,omitempty" bson:"deployed_contents_hash,omitempty"`
}
