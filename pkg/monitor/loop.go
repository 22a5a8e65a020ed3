package monitor

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/periphery"
)

// DeploymentStatus is the derived per-deployment state computed each tick.
type DeploymentStatus struct {
	State           models.DeploymentState
	Image           string
	UpdateAvailable bool
}

// StackServiceStatus is the derived per-service state within a Stack.
type StackServiceStatus struct {
	State           models.StackState
	UpdateAvailable bool
}

// StackStatus is the derived per-stack state computed each tick, keyed by service name.
type StackStatus struct {
	State    models.StackState
	Services map[string]StackServiceStatus
}

// ServerSource, DeploymentSource and StackSource decouple the scheduler from
// pkg/database so it can be exercised with fakes.
type ServerSource interface {
	EnabledServers(ctx context.Context) ([]models.Server, error)
}

type DeploymentSource interface {
	DeploymentsOnServer(ctx context.Context, serverID string) ([]models.Deployment, error)
}

type StackSource interface {
	StacksOnServer(ctx context.Context, serverID string) ([]models.Stack, error)
}

// PeripheryResolver dials the right periphery agent for a Server.
type PeripheryResolver interface {
	ClientFor(server models.Server) (periphery.Client, error)
}

// AlertSink receives every Alert the scheduler emits from a state
// transition; pkg/alert's pipeline implements this to run detection/dispatch.
type AlertSink interface {
	Emit(ctx context.Context, alert models.Alert)
}

// AutoUpdater triggers an auto-redeploy when a tracked resource's
// update_available flips true under an auto_update config.
type AutoUpdater interface {
	TriggerDeploymentRedeploy(ctx context.Context, deploymentID string)
	TriggerStackRedeploy(ctx context.Context, stackID string)
}

// StatsSink persists one coarse-interval stats sample per server; nil disables historical stats recording.
type StatsSink interface {
	InsertStats(ctx context.Context, r *models.StatsRecord) error
}

// Scheduler drives the monitoring tick: poll every enabled Server's
// periphery agent concurrently, write atomic snapshots into the caches, and
// emit transition-based alerts.
type Scheduler struct {
	Servers     ServerSource
	Deployments DeploymentSource
	Stacks      StackSource
	Resolver    PeripheryResolver

	ServerCache     *Cache[ServerStatus]
	DeploymentCache *Cache[DeploymentStatus]
	StackCache      *Cache[StackStatus]

	SystemInfoCache *TTLCache[periphery.SystemInformation]
	ProcessesCache  *TTLCache[[]periphery.SystemProcess]

	Alerts     AlertSink
	AutoUpdate AutoUpdater
	Stats      StatsSink

	PerServerTimeout time.Duration
	StatsInterval    time.Duration
	Now              func() int64
	NewStatsID       func() string

	dedupMu     sync.Mutex
	dedup       map[string]bool
	lastStatsMu sync.Mutex
	lastStatsAt map[string]int64
}

func NewScheduler(servers ServerSource, deployments DeploymentSource, stacks StackSource, resolver PeripheryResolver) *Scheduler {
	return &Scheduler{
		Servers:          servers,
		Deployments:      deployments,
		Stacks:           stacks,
		Resolver:         resolver,
		ServerCache:      NewCache[ServerStatus](),
		DeploymentCache:  NewCache[DeploymentStatus](),
		StackCache:       NewCache[StackStatus](),
		SystemInfoCache:  NewTTLCache[periphery.SystemInformation](15 * time.Second),
		ProcessesCache:   NewTTLCache[[]periphery.SystemProcess](15 * time.Second),
		PerServerTimeout: 10 * time.Second,
		StatsInterval:    time.Minute,
		Now:              func() int64 { return time.Now().Unix() },
		dedup:            make(map[string]bool),
		lastStatsAt:      make(map[string]int64),
	}
}

// Run starts the ticker loop; it blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	s.Tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one full monitoring pass over every enabled server.
func (s *Scheduler) Tick(ctx context.Context) {
	servers, err := s.Servers.EnabledServers(ctx)
	if err != nil {
		slog.Error("monitor: failed to load enabled servers", "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, server := range servers {
		server := server
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.pollServer(ctx, server)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) pollServer(ctx context.Context, server models.Server) {
	if !server.Config.Enabled {
		s.setServerStatus(ctx, server.ID, ServerStatus{State: models.ServerStateDisabled, LastTs: s.Now()})
		return
	}

	client, err := s.Resolver.ClientFor(server)
	if err != nil {
		s.setServerStatus(ctx, server.ID, ServerStatus{State: models.ServerStateNotOk, Reason: err.Error(), LastTs: s.Now()})
		return
	}

	timeout := s.PerServerTimeout
	if server.Config.TimeoutSeconds > 0 {
		timeout = time.Duration(server.Config.TimeoutSeconds) * time.Second
	}
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	version, err := client.GetVersion(pollCtx)
	if err != nil {
		s.setServerStatus(ctx, server.ID, ServerStatus{State: models.ServerStateNotOk, Reason: err.Error(), LastTs: s.Now()})
		return
	}

	containers, err := client.GetContainerList(pollCtx)
	if err != nil {
		s.setServerStatus(ctx, server.ID, ServerStatus{State: models.ServerStateNotOk, Reason: err.Error(), LastTs: s.Now()})
		return
	}
	images, err := client.GetImageList(pollCtx)
	if err != nil {
		images = nil
	}
	if server.Config.StatsMonitoring {
		stats, err := client.GetSystemStats(pollCtx)
		if err != nil {
			slog.Warn("monitor: system stats poll failed", "server", server.Name, "error", err)
		} else {
			s.maybeRecordStats(ctx, server.ID, stats)
		}
	}
	if _, err := client.GetNetworkList(pollCtx); err != nil {
		slog.Warn("monitor: network list poll failed", "server", server.Name, "error", err)
	}

	s.setServerStatus(ctx, server.ID, ServerStatus{State: models.ServerStateOk, Version: version, LastTs: s.Now()})

	s.pollDeployments(ctx, server, containers, images)
	s.pollStacks(ctx, server, containers, images)
}

// SystemInformation serves GetSystemInformation through the 15s TTL cache,
// for the read-side API to call without flooding the periphery agent.
func (s *Scheduler) SystemInformation(ctx context.Context, server models.Server) (periphery.SystemInformation, error) {
	return s.SystemInfoCache.Get(ctx, server.ID, func(ctx context.Context) (periphery.SystemInformation, error) {
		client, err := s.Resolver.ClientFor(server)
		if err != nil {
			return periphery.SystemInformation{}, err
		}
		return client.GetSystemInformation(ctx)
	})
}

// SystemProcesses serves GetSystemProcesses through the 15s TTL cache.
func (s *Scheduler) SystemProcesses(ctx context.Context, server models.Server) ([]periphery.SystemProcess, error) {
	return s.ProcessesCache.Get(ctx, server.ID, func(ctx context.Context) ([]periphery.SystemProcess, error) {
		client, err := s.Resolver.ClientFor(server)
		if err != nil {
			return nil, err
		}
		return client.GetSystemProcesses(ctx)
	})
}

func (s *Scheduler) setServerStatus(ctx context.Context, serverID string, status ServerStatus) {
	hist := s.ServerCache.Get(serverID)
	s.ServerCache.Set(serverID, status)
	if hist.Prev.State == "" && hist.Curr.State == "" {
		return // first observation, no transition to alert on
	}
	if hist.Curr.State != status.State {
		s.emitServerTransition(ctx, serverID, hist.Curr.State, status.State)
	}
}

func (s *Scheduler) emitServerTransition(ctx context.Context, serverID string, from, to models.ServerState) {
	if s.Alerts == nil {
		return
	}
	target := models.NewTarget(models.KindServer, serverID)
	if from == models.ServerStateOk && to == models.ServerStateNotOk {
		s.Alerts.Emit(ctx, models.Alert{Target: target, Variant: models.AlertServerUnreachable, Level: models.SeverityCritical, Ts: s.Now()})
	} else if from == models.ServerStateNotOk && to == models.ServerStateOk {
		s.Alerts.Emit(ctx, models.Alert{Target: target, Variant: models.AlertServerUnreachable, Level: models.SeverityOk, Resolved: true, Ts: s.Now()})
	}
}

func (s *Scheduler) pollDeployments(ctx context.Context, server models.Server, containers []periphery.Container, images []periphery.Image) {
	deployments, err := s.Deployments.DeploymentsOnServer(ctx, server.ID)
	if err != nil {
		slog.Error("monitor: failed to load deployments", "server", server.Name, "error", err)
		return
	}

	imageIDs := make(map[string]string, len(images))
	for _, img := range images {
		imageIDs[img.Name] = img.ID
	}

	for _, d := range deployments {
		status := computeDeploymentStatus(d, containers, imageIDs)
		hist := s.DeploymentCache.Get(d.ID)
		s.DeploymentCache.Set(d.ID, status)

		if hist.Curr.State != "" && hist.Curr.State != status.State {
			s.emitDeploymentStateChange(ctx, d.ID)
		}
		s.handleDeploymentUpdateAvailable(ctx, d, status, hist.Curr.UpdateAvailable)
	}
}

func computeDeploymentStatus(d models.Deployment, containers []periphery.Container, imageIDs map[string]string) DeploymentStatus {
	var match *periphery.Container
	for i := range containers {
		if containers[i].Name == d.Name {
			match = &containers[i]
			break
		}
	}
	if match == nil {
		return DeploymentStatus{State: models.DeploymentStateNotDeployed}
	}

	state := dockerStateToDeploymentState(match.State)
	updateAvailable := false
	if latestID, ok := imageIDs[match.Image]; ok && latestID != "" && latestID != match.ImageID {
		updateAvailable = true
	}
	return DeploymentStatus{State: state, Image: match.Image, UpdateAvailable: updateAvailable}
}

func dockerStateToDeploymentState(dockerState string) models.DeploymentState {
	switch dockerState {
	case "running":
		return models.DeploymentStateRunning
	case "paused":
		return models.DeploymentStatePaused
	case "restarting":
		return models.DeploymentStateRestarting
	case "exited", "dead":
		return models.DeploymentStateDead
	case "created", "stopped":
		return models.DeploymentStateStopped
	default:
		return models.DeploymentStateUnknown
	}
}

func (s *Scheduler) emitDeploymentStateChange(ctx context.Context, deploymentID string) {
	if s.Alerts == nil {
		return
	}
	s.Alerts.Emit(ctx, models.Alert{
		Target:  models.NewTarget(models.KindDeployment, deploymentID),
		Variant: models.AlertContainerStateChange,
		Level:   models.SeverityWarning,
		Ts:      s.Now(),
	})
}

func (s *Scheduler) handleDeploymentUpdateAvailable(ctx context.Context, d models.Deployment, status DeploymentStatus, wasAvailable bool) {
	dedupKey := "deployment:" + d.ID
	if !status.UpdateAvailable {
		s.clearDedup(dedupKey)
		return
	}
	if status.State != models.DeploymentStateRunning {
		return
	}

	if d.Config.AutoUpdate && !wasAvailable {
		if s.AutoUpdate != nil {
			s.AutoUpdate.TriggerDeploymentRedeploy(ctx, d.ID)
		}
		return
	}

	if d.Config.SendAlerts && !d.Config.AutoUpdate && s.markDedup(dedupKey) {
		if s.Alerts != nil {
			s.Alerts.Emit(ctx, models.Alert{
				Target:  d.Target(models.KindDeployment),
				Variant: models.AlertDeploymentImageUpdateAvailable,
				Level:   models.SeverityWarning,
				Ts:      s.Now(),
			})
		}
	}
}

func (s *Scheduler) pollStacks(ctx context.Context, server models.Server, containers []periphery.Container, images []periphery.Image) {
	stacks, err := s.Stacks.StacksOnServer(ctx, server.ID)
	if err != nil {
		slog.Error("monitor: failed to load stacks", "server", server.Name, "error", err)
		return
	}

	imageIDs := make(map[string]string, len(images))
	for _, img := range images {
		imageIDs[img.Name] = img.ID
	}

	for _, stack := range stacks {
		status := computeStackStatus(stack, containers, imageIDs)
		hist := s.StackCache.Get(stack.ID)
		s.StackCache.Set(stack.ID, status)

		if hist.Curr.State != "" && hist.Curr.State != status.State {
			s.emitStackStateChange(ctx, stack.ID)
		}
		for service, svcStatus := range status.Services {
			var prevAvailable bool
			if prev, ok := hist.Curr.Services[service]; ok {
				prevAvailable = prev.UpdateAvailable
			}
			s.handleStackUpdateAvailable(ctx, stack, service, svcStatus, prevAvailable)
		}
	}
}

// composeContainerMatchRegex matches a compose-generated container name
// against a service's declared name, tolerant of docker compose's
// "<project>-<service>-<n>" and "<project>_<service>_<n>" naming.
func composeContainerMatchRegex(service string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[_-])` + regexp.QuoteMeta(service) + `([_-]\d+)?$`)
}

func computeStackStatus(stack models.Stack, containers []periphery.Container, imageIDs map[string]string) StackStatus {
	services := make(map[string]StackServiceStatus)
	for _, svcName := range stackServiceNames(stack) {
		if containsIgnored(stack.Config.IgnoreServices, svcName) {
			continue
		}
		pattern := composeContainerMatchRegex(svcName)
		var match *periphery.Container
		for i := range containers {
			if pattern.MatchString(containers[i].Name) {
				match = &containers[i]
				break
			}
		}
		if match == nil {
			services[svcName] = StackServiceStatus{State: models.StackStateDown}
			continue
		}
		state := dockerStateToStackState(match.State)
		updateAvailable := false
		if latestID, ok := imageIDs[match.Image]; ok && latestID != "" && latestID != match.ImageID {
			updateAvailable = true
		}
		services[svcName] = StackServiceStatus{State: state, UpdateAvailable: updateAvailable}
	}

	return StackStatus{State: getStackStateFromContainers(services), Services: services}
}

// stackServiceNames returns the stack's own name as its single service;
// compose files are not parsed for service names.
func stackServiceNames(stack models.Stack) []string {
	return []string{stack.Name}
}

func containsIgnored(ignored []string, name string) bool {
	for _, i := range ignored {
		if i == name {
			return true
		}
	}
	return false
}

func dockerStateToStackState(dockerState string) models.StackState {
	switch dockerState {
	case "running":
		return models.StackStateRunning
	case "restarting":
		return models.StackStateRestarting
	case "exited", "dead", "created", "stopped":
		return models.StackStateStopped
	default:
		return models.StackStateUnknown
	}
}

// getStackStateFromContainers folds per-service states into one overall
// stack state: all running → Running, all down (no matching container) →
// Down, anything else → Partial; no services at all → Unknown.
func getStackStateFromContainers(services map[string]StackServiceStatus) models.StackState {
	if len(services) == 0 {
		return models.StackStateUnknown
	}
	running, down := 0, 0
	for _, svc := range services {
		switch svc.State {
		case models.StackStateRunning:
			running++
		case models.StackStateDown:
			down++
		}
	}
	switch {
	case running == len(services):
		return models.StackStateRunning
	case down == len(services):
		return models.StackStateDown
	default:
		return models.StackStatePartial
	}
}

func (s *Scheduler) emitStackStateChange(ctx context.Context, stackID string) {
	if s.Alerts == nil {
		return
	}
	s.Alerts.Emit(ctx, models.Alert{
		Target:  models.NewTarget(models.KindStack, stackID),
		Variant: models.AlertStackStateChange,
		Level:   models.SeverityWarning,
		Ts:      s.Now(),
	})
}

func (s *Scheduler) handleStackUpdateAvailable(ctx context.Context, stack models.Stack, service string, status StackServiceStatus, wasAvailable bool) {
	dedupKey := "stack:" + stack.ID + ":" + service
	if !status.UpdateAvailable {
		s.clearDedup(dedupKey)
		return
	}
	if status.State != models.StackStateRunning {
		return
	}

	if stack.Config.AutoUpdate && !wasAvailable {
		if s.AutoUpdate != nil {
			s.AutoUpdate.TriggerStackRedeploy(ctx, stack.ID)
		}
		return
	}

	if stack.Config.SendAlerts && !stack.Config.AutoUpdate && s.markDedup(dedupKey) {
		if s.Alerts != nil {
			s.Alerts.Emit(ctx, models.Alert{
				Target:  stack.Target(models.KindStack),
				Variant: models.AlertStackImageUpdateAvailable,
				Level:   models.SeverityWarning,
				Ts:      s.Now(),
			})
		}
	}
}

// maybeRecordStats appends a stats sample at most once per StatsInterval per
// server.
func (s *Scheduler) maybeRecordStats(ctx context.Context, serverID string, stats periphery.SystemStats) {
	if s.Stats == nil {
		return
	}
	now := s.Now()

	s.lastStatsMu.Lock()
	last, seen := s.lastStatsAt[serverID]
	due := !seen || now-last >= int64(s.StatsInterval.Seconds())
	if due {
		s.lastStatsAt[serverID] = now
	}
	s.lastStatsMu.Unlock()
	if !due {
		return
	}

	disks := make([]models.DiskUsage, len(stats.Disks))
	for i, d := range stats.Disks {
		disks[i] = models.DiskUsage{Path: d.Path, UsedGB: d.UsedGB, TotalGB: d.TotalGB, PercUsed: d.PercUsed}
	}
	record := &models.StatsRecord{
		ServerID:   serverID,
		Ts:         now,
		CPUPerc:    stats.CPUPerc,
		MemUsedGB:  stats.MemUsedGB,
		MemTotalGB: stats.MemTotalGB,
		Disks:      disks,
	}
	if s.NewStatsID != nil {
		record.ID = s.NewStatsID()
	}
	if err := s.Stats.InsertStats(ctx, record); err != nil {
		slog.Error("monitor: failed to persist stats record", "server", serverID, "error", err)
	}
}

func (s *Scheduler) markDedup(key string) bool {
	s.dedupMu.Lock()
	defer s.dedupMu.Unlock()
	if s.dedup[key] {
		return false
	}
	s.dedup[key] = true
	return true
}

func (s *Scheduler) clearDedup(key string) {
	s.dedupMu.Lock()
	defer s.dedupMu.Unlock()
	delete(s.dedup, key)
}

// ServerStatus, DeploymentStatus and StackStatus return the latest cached
// snapshot for one resource, for list-endpoint projections (pkg/kinds) that
// need derived state without depending on the scheduler's poll-side fields.
func (s *Scheduler) ServerStatus(id string) ServerStatus {
	return s.ServerCache.Get(id).Curr
}

func (s *Scheduler) DeploymentStatus(id string) DeploymentStatus {
	return s.DeploymentCache.Get(id).Curr
}

func (s *Scheduler) StackStatus(id string) StackStatus {
	return s.StackCache.Get(id).Curr
}
