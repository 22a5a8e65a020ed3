// Package periphery is the narrow external contract to the per-server
// periphery agent: an HTTP+JSON tagged-union RPC. Client is the
// interface every caller (monitor, execution) programs against; HTTPClient
// (http_client.go) is the real HTTP implementation and Fake (fake.go) is the
// in-memory stand-in for tests.
package periphery

import (
	"context"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// Client is implemented by both the real HTTP transport and in-memory
// fakes used in tests of the execution/monitor engines.
type Client interface {
	GetVersion(ctx context.Context) (string, error)
	GetSystemInformation(ctx context.Context) (SystemInformation, error)
	GetSystemStats(ctx context.Context) (SystemStats, error)
	GetSystemProcesses(ctx context.Context) ([]SystemProcess, error)
	GetContainerList(ctx context.Context) ([]Container, error)
	GetNetworkList(ctx context.Context) ([]Network, error)
	GetImageList(ctx context.Context) ([]Image, error)

	DeployContainer(ctx context.Context, req DeployContainerRequest) (models.Log, error)
	StartContainer(ctx context.Context, name string) (models.Log, error)
	StopContainer(ctx context.Context, name string, signal string, timeSec int) (models.Log, error)
	RestartContainer(ctx context.Context, name string) (models.Log, error)
	PauseContainer(ctx context.Context, name string) (models.Log, error)
	UnpauseContainer(ctx context.Context, name string) (models.Log, error)
	RemoveContainer(ctx context.Context, name string, signal string, timeSec int) (models.Log, error)
	RenameContainer(ctx context.Context, name, newName string) (models.Log, error)

	CloneRepo(ctx context.Context, req CloneRepoRequest) (models.Log, error)
	PullRepo(ctx context.Context, req PullRepoRequest) (models.Log, error)
	DeleteRepo(ctx context.Context, name string) (models.Log, error)

	Build(ctx context.Context, req BuildRequest) ([]models.Log, error)

	ComposePull(ctx context.Context, req ComposeRequest) (models.Log, error)
	ComposeUp(ctx context.Context, req ComposeRequest) ([]models.Log, error)
	ComposeExecution(ctx context.Context, req ComposeExecutionRequest) (models.Log, error)
	GetComposeContentsOnHost(ctx context.Context, req ComposeRequest) (string, error)
	WriteComposeContentsToHost(ctx context.Context, req ComposeRequest, contents string) (models.Log, error)
	ListComposeProjects(ctx context.Context) ([]ComposeProject, error)
}

// SystemInformation is the static-ish host description returned by
// GetSystemInformation.
type SystemInformation struct {
	Name      string `json:"name"`
	OS        string `json:"os"`
	Kernel    string `json:"kernel"`
	CoreCount int    `json:"core_count"`
}

// SystemStats is the periodic resource-usage snapshot the monitor polls at
// monitoring_interval.
type SystemStats struct {
	CPUPerc    float64          `json:"cpu_perc"`
	MemUsedGB  float64          `json:"mem_used_gb"`
	MemTotalGB float64          `json:"mem_total_gb"`
	Disks      []DiskUsage      `json:"disks"`
}

type DiskUsage struct {
	Path     string  `json:"path"`
	UsedGB   float64 `json:"used_gb"`
	TotalGB  float64 `json:"total_gb"`
	PercUsed float64 `json:"percent_used"`
}

type SystemProcess struct {
	PID     int32   `json:"pid"`
	Name    string  `json:"name"`
	CPUPerc float64 `json:"cpu_perc"`
	MemMB   float64 `json:"mem_mb"`
}

// Container mirrors a docker ps entry, enough to drive state/image diffing.
type Container struct {
	Name    string `json:"name"`
	Image   string `json:"image"`
	ImageID string `json:"image_id"`
	State   string `json:"state"`
}

type Network struct {
	Name   string `json:"name"`
	Driver string `json:"driver"`
}

type Image struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// DeployContainerRequest carries everything the agent needs to stop (if
// running), remove, and recreate a container against a possibly-new image
// in one call, mirroring the original source's requests::Deploy{deployment,
// stop_signal, stop_time} — the whole resolved deployment config travels
// with the request instead of a bare container name, so a build-triggered
// image change actually lands on the host.
type DeployContainerRequest struct {
	Name            string          `json:"name"`
	Image           string          `json:"image"`
	RegistryAccount string          `json:"registry_account,omitempty"`
	RestartMode     string          `json:"restart_mode,omitempty"`
	Environment     []models.EnvVar `json:"environment,omitempty"`
	Ports           []string        `json:"ports,omitempty"`
	Volumes         []string        `json:"volumes,omitempty"`
	StopSignal      string          `json:"stop_signal,omitempty"`
	StopTimeSec     int             `json:"stop_time,omitempty"`
}

type CloneRepoRequest struct {
	Name       string `json:"name"`
	Repo       string `json:"repo"`
	Branch     string `json:"branch"`
	OnCloneCmd string `json:"on_clone_cmd,omitempty"`
}

type PullRepoRequest struct {
	Name      string `json:"name"`
	OnPullCmd string `json:"on_pull_cmd,omitempty"`
}

type BuildRequest struct {
	Name       string            `json:"name"`
	Dockerfile string            `json:"dockerfile,omitempty"`
	BuildArgs  map[string]string `json:"build_args,omitempty"`
	ImageTags  []string          `json:"image_tags"`
}

type ComposeRequest struct {
	ProjectName string `json:"project_name"`
	Services    []string `json:"services,omitempty"`
}

type ComposeExecutionRequest struct {
	ProjectName string `json:"project_name"`
	Command     string `json:"command"`
}

type ComposeProject struct {
	Name     string   `json:"name"`
	Services []string `json:"services"`
}
