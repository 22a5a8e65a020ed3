package state

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/monitor"
	"github.com/komodo-run/komodo-core/pkg/periphery"
)

// PeripheryFactory dials a Server's periphery agent over HTTP, resolving its
// passkey from the process environment (per-server PasskeyEnvVar, falling
// back to the global passkey) the same way pkg/webhook resolves per-resource
// webhook secrets.
type PeripheryFactory struct {
	DB             *database.Client
	DefaultPasskey string
	DefaultTimeout time.Duration
}

func NewPeripheryFactory(db *database.Client, defaultPasskey string) *PeripheryFactory {
	return &PeripheryFactory{DB: db, DefaultPasskey: defaultPasskey, DefaultTimeout: 30 * time.Second}
}

func (f *PeripheryFactory) passkey(cfg models.ServerConfig) string {
	if cfg.PasskeyEnvVar != "" {
		if v := os.Getenv(cfg.PasskeyEnvVar); v != "" {
			return v
		}
	}
	return f.DefaultPasskey
}

// ClientFor implements pkg/monitor.PeripheryResolver.
func (f *PeripheryFactory) ClientFor(server models.Server) (periphery.Client, error) {
	if server.Config.Address == "" {
		return nil, fmt.Errorf("server %s has no address configured", server.ID)
	}
	timeout := f.DefaultTimeout
	if server.Config.TimeoutSeconds > 0 {
		timeout = time.Duration(server.Config.TimeoutSeconds) * time.Second
	}
	return periphery.NewHTTPClient(server.Config.Address, f.passkey(server.Config), timeout), nil
}

// ClientForID dials the server with id serverID; the deployment, stack, repo
// and builder adapters resolve their resource's server id and share this
// rather than each reimplementing the server lookup.
func (f *PeripheryFactory) ClientForID(ctx context.Context, serverID string) (periphery.Client, error) {
	server, err := database.GetResource[models.ServerConfig, models.ServerInfo](ctx, f.DB, models.KindServer, serverID)
	if err != nil {
		return nil, err
	}
	return f.ClientFor(*server)
}

// Reachable implements the deployment/stack resolvers' "server must be Ok"
// precondition by consulting the monitoring cache rather than polling live.
func Reachable(mon *monitor.Scheduler, serverID string) bool {
	return mon.ServerStatus(serverID).State == models.ServerStateOk
}
