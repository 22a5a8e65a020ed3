package kinds

import (
	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/sync"
)

// SyncAdapters builds the per-kind sync.Adapter map the ResourceSync engine
// diffs and applies against, one GenericAdapter per kind backed by the same
// database.ResourceStore registry.Register instantiates handlers over.
func SyncAdapters(db *database.Client) map[models.Kind]sync.Adapter {
	return map[models.Kind]sync.Adapter{
		models.KindServer: sync.NewGenericAdapter[models.ServerConfig, models.ServerInfo, models.ServerPartialConfig](
			models.KindServer, database.NewResourceStore[models.ServerConfig, models.ServerInfo](db, models.KindServer)),
		models.KindDeployment: sync.NewGenericAdapter[models.DeploymentConfig, models.DeploymentInfo, models.DeploymentPartialConfig](
			models.KindDeployment, database.NewResourceStore[models.DeploymentConfig, models.DeploymentInfo](db, models.KindDeployment)),
		models.KindBuild: sync.NewGenericAdapter[models.BuildConfig, models.BuildInfo, models.BuildPartialConfig](
			models.KindBuild, database.NewResourceStore[models.BuildConfig, models.BuildInfo](db, models.KindBuild)),
		models.KindRepo: sync.NewGenericAdapter[models.RepoConfig, models.RepoInfo, models.RepoPartialConfig](
			models.KindRepo, database.NewResourceStore[models.RepoConfig, models.RepoInfo](db, models.KindRepo)),
		models.KindProcedure: sync.NewGenericAdapter[models.ProcedureConfig, models.ProcedureInfo, models.ProcedurePartialConfig](
			models.KindProcedure, database.NewResourceStore[models.ProcedureConfig, models.ProcedureInfo](db, models.KindProcedure)),
		models.KindAction: sync.NewGenericAdapter[models.ActionConfig, models.ActionInfo, models.ActionPartialConfig](
			models.KindAction, database.NewResourceStore[models.ActionConfig, models.ActionInfo](db, models.KindAction)),
		models.KindStack: sync.NewGenericAdapter[models.StackConfig, models.StackInfo, models.StackPartialConfig](
			models.KindStack, database.NewResourceStore[models.StackConfig, models.StackInfo](db, models.KindStack)),
		models.KindResourceSync: sync.NewGenericAdapter[models.ResourceSyncConfig, models.ResourceSyncInfo, models.ResourceSyncPartialConfig](
			models.KindResourceSync, database.NewResourceStore[models.ResourceSyncConfig, models.ResourceSyncInfo](db, models.KindResourceSync)),
		models.KindBuilder: sync.NewGenericAdapter[models.BuilderConfig, models.BuilderInfo, models.BuilderPartialConfig](
			models.KindBuilder, database.NewResourceStore[models.BuilderConfig, models.BuilderInfo](db, models.KindBuilder)),
		models.KindAlerter: sync.NewGenericAdapter[models.AlerterConfig, models.AlerterInfo, models.AlerterPartialConfig](
			models.KindAlerter, database.NewResourceStore[models.AlerterConfig, models.AlerterInfo](db, models.KindAlerter)),
		models.KindServerTemplate: sync.NewGenericAdapter[models.ServerTemplateConfig, models.ServerTemplateInfo, models.ServerTemplatePartialConfig](
			models.KindServerTemplate, database.NewResourceStore[models.ServerTemplateConfig, models.ServerTemplateInfo](db, models.KindServerTemplate)),
	}
}
