package kinds

import (
	"context"
	"encoding/json"

	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/models"
)

// RawReader fetches one resource by id and re-marshals it to a plain
// map[string]any, the shape pkg/api's /read endpoint needs to stay generic
// over all eleven kinds without the Config/Info type parameters leaking
// into the HTTP layer.
type RawReader func(ctx context.Context, id string) (map[string]any, error)

func rawReader[Config any, Info any](db *database.Client, kind models.Kind) RawReader {
	return func(ctx context.Context, id string) (map[string]any, error) {
		r, err := database.GetResource[Config, Info](ctx, db, kind, id)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		var out map[string]any
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// RawReaders builds the per-kind RawReader map backing /read's single-
// resource lookup (list views go through registry.KindHandler.ToListItem
// instead, which additionally folds in monitoring-derived Info).
func RawReaders(db *database.Client) map[models.Kind]RawReader {
	return map[models.Kind]RawReader{
		models.KindServer:         rawReader[models.ServerConfig, models.ServerInfo](db, models.KindServer),
		models.KindDeployment:     rawReader[models.DeploymentConfig, models.DeploymentInfo](db, models.KindDeployment),
		models.KindBuild:          rawReader[models.BuildConfig, models.BuildInfo](db, models.KindBuild),
		models.KindRepo:           rawReader[models.RepoConfig, models.RepoInfo](db, models.KindRepo),
		models.KindProcedure:      rawReader[models.ProcedureConfig, models.ProcedureInfo](db, models.KindProcedure),
		models.KindAction:         rawReader[models.ActionConfig, models.ActionInfo](db, models.KindAction),
		models.KindStack:          rawReader[models.StackConfig, models.StackInfo](db, models.KindStack),
		models.KindResourceSync:   rawReader[models.ResourceSyncConfig, models.ResourceSyncInfo](db, models.KindResourceSync),
		models.KindBuilder:        rawReader[models.BuilderConfig, models.BuilderInfo](db, models.KindBuilder),
		models.KindAlerter:        rawReader[models.AlerterConfig, models.AlerterInfo](db, models.KindAlerter),
		models.KindServerTemplate: rawReader[models.ServerTemplateConfig, models.ServerTemplateInfo](db, models.KindServerTemplate),
	}
}
