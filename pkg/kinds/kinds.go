// Package kinds instantiates the one registry.Handler per resource kind
// that the rest of the core (API, sync, permission, execution) operates
// over through pkg/registry's type-erased KindHandler, instead of each of
// those engines switching on eleven kinds itself.
package kinds

import (
	"context"

	"github.com/komodo-run/komodo-core/pkg/actionstate"
	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/monitor"
	"github.com/komodo-run/komodo-core/pkg/registry"
)

// Monitor is the subset of monitor.Scheduler the list projectors consult for
// derived, cache-sourced state. Kept narrow so this package never needs the
// scheduler's poll-side dependencies (periphery resolver, alert sink, ...).
type Monitor interface {
	ServerStatus(id string) monitor.ServerStatus
	DeploymentStatus(id string) monitor.DeploymentStatus
	StackStatus(id string) monitor.StackStatus
}

// Register builds every kind's Handler and adds it to reg. db backs every
// kind's ResourceStore; actions backs the per-kind busy predicate; mon
// (optional — nil disables list projections) supplies derived status.
func Register(reg *registry.Registry, db *database.Client, actions *actionstate.Cache, mon Monitor) {
	reg.Register(serverHandler(db, actions, mon))
	reg.Register(deploymentHandler(db, actions, mon))
	reg.Register(buildHandler(db, actions))
	reg.Register(repoHandler(db, actions))
	reg.Register(procedureHandler(db, actions))
	reg.Register(actionHandler(db, actions))
	reg.Register(stackHandler(db, actions, mon))
	reg.Register(resourceSyncHandler(db, actions))
	reg.Register(builderHandler(db, actions))
	reg.Register(alerterHandler(db, actions))
	reg.Register(serverTemplateHandler(db, actions))
}

func serverHandler(db *database.Client, actions *actionstate.Cache, mon Monitor) *registry.Handler[models.ServerConfig, models.ServerInfo, models.ServerPartialConfig] {
	store := database.NewResourceStore[models.ServerConfig, models.ServerInfo](db, models.KindServer)
	project := func(ctx context.Context, r *models.Server) (any, error) {
		if mon == nil {
			return nil, nil
		}
		return mon.ServerStatus(r.ID), nil
	}
	return registry.NewHandler[models.ServerConfig, models.ServerInfo, models.ServerPartialConfig](
		models.KindServer, store, actions, nil,
		registry.Validator[models.ServerPartialConfig]{}, project, registry.LifecycleHooks{},
	)
}

func deploymentHandler(db *database.Client, actions *actionstate.Cache, mon Monitor) *registry.Handler[models.DeploymentConfig, models.DeploymentInfo, models.DeploymentPartialConfig] {
	store := database.NewResourceStore[models.DeploymentConfig, models.DeploymentInfo](db, models.KindDeployment)
	busy := []actionstate.Flag{
		actionstate.FlagDeploying, actionstate.FlagStarting, actionstate.FlagStopping,
		actionstate.FlagPausing, actionstate.FlagUnpausing, actionstate.FlagRemoving,
		actionstate.FlagRenaming, actionstate.FlagUpdating,
	}
	project := func(ctx context.Context, r *models.Deployment) (any, error) {
		if mon == nil {
			return nil, nil
		}
		return mon.DeploymentStatus(r.ID), nil
	}
	return registry.NewHandler[models.DeploymentConfig, models.DeploymentInfo, models.DeploymentPartialConfig](
		models.KindDeployment, store, actions, busy,
		registry.Validator[models.DeploymentPartialConfig]{}, project, registry.LifecycleHooks{},
	)
}

func buildHandler(db *database.Client, actions *actionstate.Cache) *registry.Handler[models.BuildConfig, models.BuildInfo, models.BuildPartialConfig] {
	store := database.NewResourceStore[models.BuildConfig, models.BuildInfo](db, models.KindBuild)
	busy := []actionstate.Flag{actionstate.FlagBuilding}
	return registry.NewHandler[models.BuildConfig, models.BuildInfo, models.BuildPartialConfig](
		models.KindBuild, store, actions, busy,
		registry.Validator[models.BuildPartialConfig]{}, nil, registry.LifecycleHooks{},
	)
}

func repoHandler(db *database.Client, actions *actionstate.Cache) *registry.Handler[models.RepoConfig, models.RepoInfo, models.RepoPartialConfig] {
	store := database.NewResourceStore[models.RepoConfig, models.RepoInfo](db, models.KindRepo)
	busy := []actionstate.Flag{actionstate.FlagCloning, actionstate.FlagPulling, actionstate.FlagBuilding}
	return registry.NewHandler[models.RepoConfig, models.RepoInfo, models.RepoPartialConfig](
		models.KindRepo, store, actions, busy,
		registry.Validator[models.RepoPartialConfig]{}, nil, registry.LifecycleHooks{},
	)
}

func procedureHandler(db *database.Client, actions *actionstate.Cache) *registry.Handler[models.ProcedureConfig, models.ProcedureInfo, models.ProcedurePartialConfig] {
	store := database.NewResourceStore[models.ProcedureConfig, models.ProcedureInfo](db, models.KindProcedure)
	busy := []actionstate.Flag{actionstate.FlagRunning}
	// Deep cycle detection across nested RunProcedure stages is left to
	// pkg/execution's visited-set guard at run time rather than duplicated
	// here as a static validator.
	return registry.NewHandler[models.ProcedureConfig, models.ProcedureInfo, models.ProcedurePartialConfig](
		models.KindProcedure, store, actions, busy,
		registry.Validator[models.ProcedurePartialConfig]{}, nil, registry.LifecycleHooks{},
	)
}

func actionHandler(db *database.Client, actions *actionstate.Cache) *registry.Handler[models.ActionConfig, models.ActionInfo, models.ActionPartialConfig] {
	store := database.NewResourceStore[models.ActionConfig, models.ActionInfo](db, models.KindAction)
	busy := []actionstate.Flag{actionstate.FlagRunning}
	return registry.NewHandler[models.ActionConfig, models.ActionInfo, models.ActionPartialConfig](
		models.KindAction, store, actions, busy,
		registry.Validator[models.ActionPartialConfig]{}, nil, registry.LifecycleHooks{},
	)
}

func stackHandler(db *database.Client, actions *actionstate.Cache, mon Monitor) *registry.Handler[models.StackConfig, models.StackInfo, models.StackPartialConfig] {
	store := database.NewResourceStore[models.StackConfig, models.StackInfo](db, models.KindStack)
	busy := []actionstate.Flag{
		actionstate.FlagDeploying, actionstate.FlagStarting, actionstate.FlagStopping,
		actionstate.FlagPulling, actionstate.FlagRemoving,
	}
	project := func(ctx context.Context, r *models.Stack) (any, error) {
		if mon == nil {
			return nil, nil
		}
		return mon.StackStatus(r.ID), nil
	}
	return registry.NewHandler[models.StackConfig, models.StackInfo, models.StackPartialConfig](
		models.KindStack, store, actions, busy,
		registry.Validator[models.StackPartialConfig]{}, project, registry.LifecycleHooks{},
	)
}

func resourceSyncHandler(db *database.Client, actions *actionstate.Cache) *registry.Handler[models.ResourceSyncConfig, models.ResourceSyncInfo, models.ResourceSyncPartialConfig] {
	store := database.NewResourceStore[models.ResourceSyncConfig, models.ResourceSyncInfo](db, models.KindResourceSync)
	busy := []actionstate.Flag{actionstate.FlagSyncing}
	return registry.NewHandler[models.ResourceSyncConfig, models.ResourceSyncInfo, models.ResourceSyncPartialConfig](
		models.KindResourceSync, store, actions, busy,
		registry.Validator[models.ResourceSyncPartialConfig]{}, nil, registry.LifecycleHooks{},
	)
}

func builderHandler(db *database.Client, actions *actionstate.Cache) *registry.Handler[models.BuilderConfig, models.BuilderInfo, models.BuilderPartialConfig] {
	store := database.NewResourceStore[models.BuilderConfig, models.BuilderInfo](db, models.KindBuilder)
	return registry.NewHandler[models.BuilderConfig, models.BuilderInfo, models.BuilderPartialConfig](
		models.KindBuilder, store, actions, nil,
		registry.Validator[models.BuilderPartialConfig]{}, nil, registry.LifecycleHooks{},
	)
}

func alerterHandler(db *database.Client, actions *actionstate.Cache) *registry.Handler[models.AlerterConfig, models.AlerterInfo, models.AlerterPartialConfig] {
	store := database.NewResourceStore[models.AlerterConfig, models.AlerterInfo](db, models.KindAlerter)
	busy := []actionstate.Flag{actionstate.FlagTesting}
	return registry.NewHandler[models.AlerterConfig, models.AlerterInfo, models.AlerterPartialConfig](
		models.KindAlerter, store, actions, busy,
		registry.Validator[models.AlerterPartialConfig]{}, nil, registry.LifecycleHooks{},
	)
}

func serverTemplateHandler(db *database.Client, actions *actionstate.Cache) *registry.Handler[models.ServerTemplateConfig, models.ServerTemplateInfo, models.ServerTemplatePartialConfig] {
	store := database.NewResourceStore[models.ServerTemplateConfig, models.ServerTemplateInfo](db, models.KindServerTemplate)
	busy := []actionstate.Flag{actionstate.FlagLaunching}
	return registry.NewHandler[models.ServerTemplateConfig, models.ServerTemplateInfo, models.ServerTemplatePartialConfig](
		models.KindServerTemplate, store, actions, busy,
		registry.Validator[models.ServerTemplatePartialConfig]{}, nil, registry.LifecycleHooks{},
	)
}
