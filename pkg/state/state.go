// Package state is the composition root: it wires pkg/database through
// every engine (permission, registry, sync, execution, monitor, alert,
// webhook) into the one State struct cmd/komodo mounts onto its router and
// background loops.
package state

import (
	"github.com/komodo-run/komodo-core/pkg/actionstate"
	"github.com/komodo-run/komodo-core/pkg/alert"
	"github.com/komodo-run/komodo-core/pkg/api"
	"github.com/komodo-run/komodo-core/pkg/cloud"
	"github.com/komodo-run/komodo-core/pkg/config"
	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/kinds"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/monitor"
	"github.com/komodo-run/komodo-core/pkg/permission"
	"github.com/komodo-run/komodo-core/pkg/registry"
	"github.com/komodo-run/komodo-core/pkg/sync"
	"github.com/komodo-run/komodo-core/pkg/update"
	"github.com/komodo-run/komodo-core/pkg/webhook"
)

// State holds every long-lived dependency the HTTP API, the background
// monitoring loops, and the webhook listener share.
type State struct {
	DB *database.Client

	Actions *actionstate.Cache
	Journal *update.Journal

	Permissions *permission.Engine
	Registry    *registry.Registry
	Monitor     *monitor.Scheduler
	Retention   *monitor.Retention
	Alerts      *alert.Pipeline
	Execution   *execution.Engine
	Sync        *sync.Engine
	Webhook     *webhook.Listener

	API *api.Server
}

// New builds the full dependency graph described by cfg, against an
// already-connected db.
func New(cfg *config.Config, db *database.Client) *State {
	actions := actionstate.NewCache()
	broadcaster := update.NewBroadcaster()
	journal := update.New(db, broadcaster, update.WallClock)
	perms := permission.New(db, db, db, cfg.TransparentMode)

	periphery := NewPeripheryFactory(db, cfg.Passkey)

	cloudProvisioners := CloudProvisioners{}
	if cfg.AWS.AccessKeyID != "" {
		cloudProvisioners.AWS = newAWSProvisioner(cfg.AWS)
	}
	if cfg.Hetzner.Token != "" {
		cloudProvisioners.Hetzner = cloud.NewHetznerProvisioner(cfg.Hetzner.Token)
	}

	mon := monitor.NewScheduler(db, db, db, periphery)

	reg := registry.New()
	kinds.Register(reg, db, actions, mon)

	syncAdapters := kinds.SyncAdapters(db)
	rawReaders := kinds.RawReaders(db)

	syncStore := database.NewResourceStore[models.ResourceSyncConfig, models.ResourceSyncInfo](db, models.KindResourceSync)
	syncEngine := sync.New(syncAdapters, sync.NewRawFetcher(), syncStore, update.WallClock)

	engine := execution.New(perms, actions, journal)
	autoUpdater := &AutoUpdater{Engine: engine, DB: db, Monitor: mon}

	deploymentAdapter := &DeploymentAdapter{DB: db, Periphery: periphery, Monitor: mon}
	for t, h := range execution.ContainerHandlers(deploymentAdapter) {
		engine.Register(t, h)
	}
	engine.Register(execution.TypeStopContainer, execution.StopContainerHandler(deploymentAdapter))
	engine.Register(execution.TypeRemoveContainer, execution.RemoveContainerHandler(deploymentAdapter))
	engine.Register(execution.TypeDeploy, execution.DeployHandler(deploymentAdapter, deploymentAdapter))

	cancelBroadcaster := execution.NewBroadcaster()
	cancelTracker := NewCancelTracker()
	builderAdapter := &BuilderAdapter{DB: db, Periphery: periphery, Cloud: cloudProvisioners}
	engine.Register(execution.TypeRunBuild, execution.RunBuildHandler(builderAdapter, cancelBroadcaster, update.WallClock, autoUpdater))
	engine.Register(execution.TypeCancelBuild, CancelBuildHandler(cancelTracker, cancelBroadcaster))

	repoAdapter := &RepoAdapter{DB: db, Periphery: periphery}
	engine.Register(execution.TypeCloneRepo, execution.CloneRepoHandler(repoAdapter))
	engine.Register(execution.TypePullRepo, execution.PullRepoHandler(repoAdapter, update.WallClock))
	engine.Register(execution.TypeBuildRepo, execution.BuildRepoHandler(repoAdapter))

	stackAdapter := &StackAdapter{DB: db, Periph: periphery, Monitor: mon}
	engine.Register(execution.TypeDeployStack, execution.DeployStackHandler(stackAdapter, update.WallClock))
	engine.Register(execution.TypePullStack, execution.PullStackHandler(stackAdapter))
	engine.Register(execution.TypeStartStack, execution.StartStackHandler(stackAdapter))
	engine.Register(execution.TypeStopStack, execution.StopStackHandler(stackAdapter))
	engine.Register(execution.TypeDestroyStack, execution.DestroyStackHandler(stackAdapter))

	actionAdapter := &ActionAdapter{DB: db}
	engine.Register(execution.TypeRunAction, execution.RunActionHandler(
		actionAdapter, db, actionAdapter, execution.DenoRunner{}, cfg.GithubWebhookBaseURL, "/tmp/komodo-actions", update.WallClock,
	))

	procedureAdapter := &ProcedureAdapter{DB: db}
	engine.Register(execution.TypeRunProcedure, execution.RunProcedureHandler(procedureAdapter, engine, db))

	engine.Register(execution.TypeRunSync, execution.RunSyncHandler(syncEngine))

	serverAdapter := &ServerAdapter{DB: db, Cloud: cloudProvisioners}
	engine.Register(execution.TypeLaunchServer, execution.LaunchServerHandler(serverAdapter))

	alerterAdapter := &AlerterAdapter{DB: db, Endpoints: map[models.AlerterEndpointKind]execution.AlertEndpoint{
		models.AlerterSlack:   alert.NewSlackEndpoint(),
		models.AlerterDiscord: alert.NewDiscordEndpoint(),
		models.AlerterCustom:  alert.NewCustomEndpoint(),
	}}
	engine.Register(execution.TypeTestAlerter, execution.TestAlerterHandler(alerterAdapter, update.WallClock))

	mon.AutoUpdate = autoUpdater
	mon.Stats = db

	alertPipeline := alert.NewPipeline(db, db)
	alertPipeline.Endpoints[models.AlerterSlack] = alert.NewSlackEndpoint()
	alertPipeline.Endpoints[models.AlerterDiscord] = alert.NewDiscordEndpoint()
	alertPipeline.Endpoints[models.AlerterCustom] = alert.NewCustomEndpoint()
	mon.Alerts = alertPipeline

	retention := monitor.NewRetention(db, db, monitor.RetentionConfig{
		KeepStatsForDays:  cfg.KeepStatsForDays,
		KeepAlertsForDays: cfg.KeepAlertsForDays,
	})

	locks := webhook.NewLocks()
	secretFor := func(envVar string) string {
		return resolveSecret(envVar, cfg.GithubWebhookSecret)
	}
	webhookListener := webhook.New(db, db, db, db, locks, engine, secretFor)

	authorizer := &api.Authorizer{
		Users:     db,
		ApiKeys:   db,
		Passkey:   cfg.Passkey,
		ValidFor:  cfg.JWTValidFor,
		LocalAuth: cfg.LocalAuth,
	}
	apiServer := api.NewServer(
		authorizer,
		api.NewReader(reg, syncAdapters, rawReaders, perms),
		api.NewWriter(reg, syncAdapters, perms),
		api.NewExecutor(engine),
	)

	return &State{
		DB:          db,
		Actions:     actions,
		Journal:     journal,
		Permissions: perms,
		Registry:    reg,
		Monitor:     mon,
		Retention:   retention,
		Alerts:      alertPipeline,
		Execution:   engine,
		Sync:        syncEngine,
		Webhook:     webhookListener,
		API:         apiServer,
	}
}
