package periphery

import (
	"context"
	"sync"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// Fake is an in-memory Client for tests of the execution and monitor
// engines; callers seed the fields they need and optionally set Err to
// force every call to fail.
type Fake struct {
	mu sync.Mutex

	Version      string
	Info         SystemInformation
	Stats        SystemStats
	Processes    []SystemProcess
	Containers   []Container
	Networks     []Network
	Images       []Image
	Projects     []ComposeProject
	Err          error
	ContainerLog models.Log
	BuildLogs    []models.Log

	Calls []string
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, name)
}

func (f *Fake) GetVersion(context.Context) (string, error) {
	f.record("GetVersion")
	return f.Version, f.Err
}

func (f *Fake) GetSystemInformation(context.Context) (SystemInformation, error) {
	f.record("GetSystemInformation")
	return f.Info, f.Err
}

func (f *Fake) GetSystemStats(context.Context) (SystemStats, error) {
	f.record("GetSystemStats")
	return f.Stats, f.Err
}

func (f *Fake) GetSystemProcesses(context.Context) ([]SystemProcess, error) {
	f.record("GetSystemProcesses")
	return f.Processes, f.Err
}

func (f *Fake) GetContainerList(context.Context) ([]Container, error) {
	f.record("GetContainerList")
	return f.Containers, f.Err
}

func (f *Fake) GetNetworkList(context.Context) ([]Network, error) {
	f.record("GetNetworkList")
	return f.Networks, f.Err
}

func (f *Fake) GetImageList(context.Context) ([]Image, error) {
	f.record("GetImageList")
	return f.Images, f.Err
}

func (f *Fake) DeployContainer(_ context.Context, req DeployContainerRequest) (models.Log, error) {
	f.record("DeployContainer:" + req.Name + ":" + req.Image)
	return f.ContainerLog, f.Err
}

func (f *Fake) StartContainer(_ context.Context, name string) (models.Log, error) {
	f.record("StartContainer:" + name)
	return f.ContainerLog, f.Err
}

func (f *Fake) StopContainer(_ context.Context, name, _ string, _ int) (models.Log, error) {
	f.record("StopContainer:" + name)
	return f.ContainerLog, f.Err
}

func (f *Fake) RestartContainer(_ context.Context, name string) (models.Log, error) {
	f.record("RestartContainer:" + name)
	return f.ContainerLog, f.Err
}

func (f *Fake) PauseContainer(_ context.Context, name string) (models.Log, error) {
	f.record("PauseContainer:" + name)
	return f.ContainerLog, f.Err
}

func (f *Fake) UnpauseContainer(_ context.Context, name string) (models.Log, error) {
	f.record("UnpauseContainer:" + name)
	return f.ContainerLog, f.Err
}

func (f *Fake) RemoveContainer(_ context.Context, name, _ string, _ int) (models.Log, error) {
	f.record("RemoveContainer:" + name)
	return f.ContainerLog, f.Err
}

func (f *Fake) RenameContainer(_ context.Context, name, newName string) (models.Log, error) {
	f.record("RenameContainer:" + name + "->" + newName)
	return f.ContainerLog, f.Err
}

func (f *Fake) CloneRepo(_ context.Context, req CloneRepoRequest) (models.Log, error) {
	f.record("CloneRepo:" + req.Name)
	return f.ContainerLog, f.Err
}

func (f *Fake) PullRepo(_ context.Context, req PullRepoRequest) (models.Log, error) {
	f.record("PullRepo:" + req.Name)
	return f.ContainerLog, f.Err
}

func (f *Fake) DeleteRepo(_ context.Context, name string) (models.Log, error) {
	f.record("DeleteRepo:" + name)
	return f.ContainerLog, f.Err
}

func (f *Fake) Build(_ context.Context, req BuildRequest) ([]models.Log, error) {
	f.record("Build:" + req.Name)
	return f.BuildLogs, f.Err
}

func (f *Fake) ComposePull(_ context.Context, req ComposeRequest) (models.Log, error) {
	f.record("ComposePull:" + req.ProjectName)
	return f.ContainerLog, f.Err
}

func (f *Fake) ComposeUp(_ context.Context, req ComposeRequest) ([]models.Log, error) {
	f.record("ComposeUp:" + req.ProjectName)
	return f.BuildLogs, f.Err
}

func (f *Fake) ComposeExecution(_ context.Context, req ComposeExecutionRequest) (models.Log, error) {
	f.record("ComposeExecution:" + req.ProjectName)
	return f.ContainerLog, f.Err
}

func (f *Fake) GetComposeContentsOnHost(_ context.Context, req ComposeRequest) (string, error) {
	f.record("GetComposeContentsOnHost:" + req.ProjectName)
	return "", f.Err
}

func (f *Fake) WriteComposeContentsToHost(_ context.Context, req ComposeRequest, _ string) (models.Log, error) {
	f.record("WriteComposeContentsToHost:" + req.ProjectName)
	return f.ContainerLog, f.Err
}

func (f *Fake) ListComposeProjects(context.Context) ([]ComposeProject, error) {
	f.record("ListComposeProjects")
	return f.Projects, f.Err
}
