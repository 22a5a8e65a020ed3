package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// ResourceStore is the generic per-kind CRUD handle pkg/registry and
// pkg/sync build on instead of each hand-writing Get/List/Upsert/Delete
// against the Resources(kind) collection.
type ResourceStore[Config any, Info any] struct {
	Client *Client
	Kind   models.Kind
}

func NewResourceStore[Config any, Info any](c *Client, kind models.Kind) *ResourceStore[Config, Info] {
	return &ResourceStore[Config, Info]{Client: c, Kind: kind}
}

func (s *ResourceStore[Config, Info]) Get(ctx context.Context, id string) (*models.Resource[Config, Info], error) {
	return GetResource[Config, Info](ctx, s.Client, s.Kind, id)
}

func (s *ResourceStore[Config, Info]) List(ctx context.Context) ([]models.Resource[Config, Info], error) {
	return ListResources[Config, Info](ctx, s.Client, s.Kind, bson.M{})
}

func (s *ResourceStore[Config, Info]) Upsert(ctx context.Context, r *models.Resource[Config, Info]) error {
	return UpsertResource[Config, Info](ctx, s.Client, s.Kind, r)
}

func (s *ResourceStore[Config, Info]) Delete(ctx context.Context, id string) error {
	return DeleteResource(ctx, s.Client, s.Kind, id)
}

// FindByName locates a resource id by exact name, used by the sync engine
// to match declared TOML resources against persisted ones.
func (s *ResourceStore[Config, Info]) FindByName(ctx context.Context, name string) (string, bool, error) {
	out, err := ListResources[Config, Info](ctx, s.Client, s.Kind, bson.M{"name": name})
	if err != nil {
		return "", false, err
	}
	if len(out) == 0 {
		return "", false, nil
	}
	return out[0].ID, true, nil
}
