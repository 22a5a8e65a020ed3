package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// GetResource fetches a single resource of kind K by id. Generic over the
// Config/Info pair so pkg/registry can instantiate one call site per kind
// without writing eleven near-identical CRUD implementations.
func GetResource[Config any, Info any](ctx context.Context, c *Client, kind models.Kind, id string) (*models.Resource[Config, Info], error) {
	var r models.Resource[Config, Info]
	err := c.Resources(kind).FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound{Kind: kind, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListResources fetches every resource of kind K matching filter (nil for
// no filter), used by both the list API and sync planning.
func ListResources[Config any, Info any](ctx context.Context, c *Client, kind models.Kind, filter bson.M) ([]models.Resource[Config, Info], error) {
	if filter == nil {
		filter = bson.M{}
	}
	cur, err := c.Resources(kind).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Resource[Config, Info]
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertResource inserts or replaces a resource document by id.
func UpsertResource[Config any, Info any](ctx context.Context, c *Client, kind models.Kind, r *models.Resource[Config, Info]) error {
	_, err := c.Resources(kind).ReplaceOne(ctx, bson.M{"_id": r.ID}, r, options.Replace().SetUpsert(true))
	return err
}

// DeleteResource removes a resource document by id.
func DeleteResource(ctx context.Context, c *Client, kind models.Kind, id string) error {
	_, err := c.Resources(kind).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// GetRepo implements pkg/webhook.RepoSource.
func (c *Client) GetRepo(ctx context.Context, id string) (*models.Repo, error) {
	return GetResource[models.RepoConfig, models.RepoInfo](ctx, c, models.KindRepo, id)
}

// GetBuild implements pkg/webhook.BuildSource.
func (c *Client) GetBuild(ctx context.Context, id string) (*models.Build, error) {
	return GetResource[models.BuildConfig, models.BuildInfo](ctx, c, models.KindBuild, id)
}

// GetProcedure implements pkg/webhook.ProcedureSource.
func (c *Client) GetProcedure(ctx context.Context, id string) (*models.Procedure, error) {
	return GetResource[models.ProcedureConfig, models.ProcedureInfo](ctx, c, models.KindProcedure, id)
}

// GetSync implements pkg/webhook.SyncSource.
func (c *Client) GetSync(ctx context.Context, id string) (*models.ResourceSync, error) {
	return GetResource[models.ResourceSyncConfig, models.ResourceSyncInfo](ctx, c, models.KindResourceSync, id)
}

// ErrNotFound reports a missing resource document.
type ErrNotFound struct {
	Kind models.Kind
	ID   string
}

func (e ErrNotFound) Error() string {
	return string(e.Kind) + " " + e.ID + " not found"
}
