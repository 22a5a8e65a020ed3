package execution

import (
	"context"

	"github.com/komodo-run/komodo-core/pkg/cloud"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// ServerLauncher resolves a Server target's backing ServerTemplate, launches
// the instance, and persists the resulting address onto the Server's
// config so subsequent monitoring/execution resolves it like any other
// periphery host.
type ServerLauncher interface {
	ResolveTemplate(ctx context.Context, serverID string) (provisioner cloud.Provisioner, name string, cfg cloud.LaunchConfig, err error)
	PersistAddress(ctx context.Context, serverID, address string) error
}

// LaunchServerHandler implements the LaunchServer request.
func LaunchServerHandler(launcher ServerLauncher) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		provisioner, name, cfg, err := launcher.ResolveTemplate(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		instance, err := provisioner.Launch(ctx, name, cfg)
		if err != nil {
			return err
		}
		if err := journal.AppendLog(ctx, u, models.Log{
			Stage:   "launch",
			Stdout:  "instance " + instance.InstanceID + " at " + instance.IP,
			Success: true,
		}); err != nil {
			return err
		}
		return launcher.PersistAddress(ctx, req.Target.ID, instance.IP)
	}
}
