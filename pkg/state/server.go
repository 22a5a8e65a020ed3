package state

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/cloud"
	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
)

// ServerAdapter implements execution.ServerLauncher: it looks up the Server
// target's TemplateID, resolves that ServerTemplate's cloud flavor, and
// hands LaunchServerHandler a provisioner plus launch params.
type ServerAdapter struct {
	DB    *database.Client
	Cloud CloudProvisioners
}

var _ execution.ServerLauncher = (*ServerAdapter)(nil)

func (a *ServerAdapter) ResolveTemplate(ctx context.Context, serverID string) (cloud.Provisioner, string, cloud.LaunchConfig, error) {
	server, err := database.GetResource[models.ServerConfig, models.ServerInfo](ctx, a.DB, models.KindServer, serverID)
	if err != nil {
		return nil, "", cloud.LaunchConfig{}, err
	}
	if server.Config.TemplateID == "" {
		return nil, "", cloud.LaunchConfig{}, fmt.Errorf("server %s has no template_id to launch from", serverID)
	}
	tmpl, err := database.GetResource[models.ServerTemplateConfig, models.ServerTemplateInfo](ctx, a.DB, models.KindServerTemplate, server.Config.TemplateID)
	if err != nil {
		return nil, "", cloud.LaunchConfig{}, err
	}

	var kind models.BuilderKind
	switch tmpl.Config.Kind {
	case models.ServerTemplateAws:
		kind = models.BuilderKindAws
	case models.ServerTemplateHetzner:
		kind = models.BuilderKindHetzner
	default:
		return nil, "", cloud.LaunchConfig{}, fmt.Errorf("server template %s has unrecognized kind %s", tmpl.ID, tmpl.Config.Kind)
	}
	provisioner, err := a.Cloud.forKind(kind)
	if err != nil {
		return nil, "", cloud.LaunchConfig{}, err
	}
	return provisioner, server.Name, cloudLaunchConfig(tmpl.Config.Cloud), nil
}

func (a *ServerAdapter) PersistAddress(ctx context.Context, serverID, address string) error {
	server, err := database.GetResource[models.ServerConfig, models.ServerInfo](ctx, a.DB, models.KindServer, serverID)
	if err != nil {
		return err
	}
	server.Config.Address = address
	return database.UpsertResource(ctx, a.DB, models.KindServer, server)
}
