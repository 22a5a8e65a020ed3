package state

import (
	"context"

	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/monitor"
	"github.com/komodo-run/komodo-core/pkg/periphery"
)

// StackAdapter implements execution.StackResolver for Stack targets. The
// compose project name is the Stack's own resource name so repeated
// deploys of the same Stack always target the same project on the host.
type StackAdapter struct {
	DB      *database.Client
	Periph  *PeripheryFactory
	Monitor *monitor.Scheduler
}

var _ execution.StackResolver = (*StackAdapter)(nil)

func (a *StackAdapter) stack(ctx context.Context, stackID string) (*models.Stack, error) {
	return database.GetResource[models.StackConfig, models.StackInfo](ctx, a.DB, models.KindStack, stackID)
}

func (a *StackAdapter) ClientFor(ctx context.Context, stackID string) (periphery.Client, error) {
	s, err := a.stack(ctx, stackID)
	if err != nil {
		return nil, err
	}
	return a.Periph.ClientForID(ctx, s.Config.ServerID)
}

func (a *StackAdapter) ServerReachable(ctx context.Context, stackID string) (bool, error) {
	s, err := a.stack(ctx, stackID)
	if err != nil {
		return false, err
	}
	return Reachable(a.Monitor, s.Config.ServerID), nil
}

// ComposeRequest narrows the compose project down to the requested
// services; an empty services list means "all services in the project".
func (a *StackAdapter) ComposeRequest(ctx context.Context, stackID string, services []string) (periphery.ComposeRequest, error) {
	s, err := a.stack(ctx, stackID)
	if err != nil {
		return periphery.ComposeRequest{}, err
	}
	want := services
	if len(want) == 0 {
		want = nil
	}
	var filtered []string
	for _, svc := range want {
		excluded := false
		for _, ig := range s.Config.IgnoreServices {
			if ig == svc {
				excluded = true
				break
			}
		}
		if !excluded {
			filtered = append(filtered, svc)
		}
	}
	return periphery.ComposeRequest{ProjectName: s.Name, Services: filtered}, nil
}

func (a *StackAdapter) PersistDeployResult(ctx context.Context, stackID, contentsHash string, deployedAt int64) error {
	s, err := a.stack(ctx, stackID)
	if err != nil {
		return err
	}
	s.Info.LastDeployedAt = deployedAt
	s.Info.DeployedContentsHash = contentsHash
	return database.UpsertResource(ctx, a.DB, models.KindStack, s)
}
