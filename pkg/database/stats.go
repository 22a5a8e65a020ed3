package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/komodo-run/komodo-core/pkg/models"
)

const collStats = "stats_history"

func (c *Client) stats() *mongo.Collection { return c.db.Collection(collStats) }

// InsertStats appends one coarse-interval stats sample.
func (c *Client) InsertStats(ctx context.Context, r *models.StatsRecord) error {
	_, err := c.stats().InsertOne(ctx, r)
	return err
}

// PruneStatsOlderThan implements pkg/monitor.StatsPruner.
func (c *Client) PruneStatsOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := c.stats().DeleteMany(ctx, bson.M{"ts": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// PruneResolvedAlertsOlderThan implements pkg/monitor.AlertPruner.
func (c *Client) PruneResolvedAlertsOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := c.alerts().DeleteMany(ctx, bson.M{"resolved": true, "resolved_ts": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnabledServers implements pkg/monitor.ServerSource.
func (c *Client) EnabledServers(ctx context.Context) ([]models.Server, error) {
	return ListResources[models.ServerConfig, models.ServerInfo](ctx, c, models.KindServer, bson.M{"config.enabled": true})
}

// DeploymentsOnServer implements pkg/monitor.DeploymentSource.
func (c *Client) DeploymentsOnServer(ctx context.Context, serverID string) ([]models.Deployment, error) {
	return ListResources[models.DeploymentConfig, models.DeploymentInfo](ctx, c, models.KindDeployment, bson.M{"config.server_id": serverID})
}

// StacksOnServer implements pkg/monitor.StackSource.
func (c *Client) StacksOnServer(ctx context.Context, serverID string) ([]models.Stack, error) {
	return ListResources[models.StackConfig, models.StackInfo](ctx, c, models.KindStack, bson.M{"config.server_id": serverID})
}

// EnabledAlerters implements pkg/alert.AlerterLookup.
func (c *Client) EnabledAlerters(ctx context.Context) ([]models.Alerter, error) {
	return ListResources[models.AlerterConfig, models.AlerterInfo](ctx, c, models.KindAlerter, bson.M{"config.enabled": true})
}
