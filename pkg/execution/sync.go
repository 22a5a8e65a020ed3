package execution

import (
	"context"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// Syncer is the subset of pkg/sync.Engine the RunSync request needs: fetch,
// diff, and apply a ResourceSync's declared resources.
type Syncer interface {
	Run(ctx context.Context, syncID string) (*models.PendingSyncData, error)
}

// RunSyncHandler implements the RunSync request, used both for direct
// execution and the GitHub webhook's sync/:id/sync route.
func RunSyncHandler(syncer Syncer) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		data, err := syncer.Run(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		for kind, counts := range data.ByKind {
			for _, line := range counts.Log {
				if err := journal.AppendLog(ctx, u, models.Log{Stage: string(kind), Stdout: line, Success: true}); err != nil {
					return err
				}
			}
		}
		return nil
	}
}
