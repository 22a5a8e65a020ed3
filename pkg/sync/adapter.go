// Package sync implements the ResourceSync engine: parse a
// TOML source of truth, diff it against persisted resources, and apply the
// resulting create/update/delete plan. Diffing and merging reuse
// pkg/configdiff's reflection-based Partial/Diff machinery so the engine
// stays generic over all eleven kinds instead of switching on each one.
package sync

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/komodo-run/komodo-core/pkg/configdiff"
	"github.com/komodo-run/komodo-core/pkg/models"
)

// Item is the kind-agnostic {id, name, tags} projection the plan phase
// needs to match declared resources against persisted ones.
type Item struct {
	ID   string
	Name string
	Tags []string
}

// Store is the subset of database.ResourceStore the sync adapter needs.
type Store[Config any, Info any] interface {
	Get(ctx context.Context, id string) (*models.Resource[Config, Info], error)
	List(ctx context.Context) ([]models.Resource[Config, Info], error)
	Upsert(ctx context.Context, r *models.Resource[Config, Info]) error
	Delete(ctx context.Context, id string) error
	FindByName(ctx context.Context, name string) (string, bool, error)
}

// Adapter is the type-erased per-kind contract the plan/apply passes use,
// mirroring pkg/registry's KindHandler split between a generic
// implementation and a narrow interface callers share across all kinds.
type Adapter interface {
	Kind() models.Kind
	List(ctx context.Context) ([]Item, error)
	FindByName(ctx context.Context, name string) (string, bool, error)
	Diff(ctx context.Context, id string, raw map[string]any) (configdiff.Diff, error)
	Create(ctx context.Context, name string, tags []string, raw map[string]any) (id string, err error)
	Update(ctx context.Context, id string, raw map[string]any) error
	Delete(ctx context.Context, id string) error
}

// GenericAdapter implements Adapter for one kind given its Config/Info/
// Partial triple. Partial must JSON round-trip the same way its bson/json
// tags already make it do for the HTTP API, so a TOML table decoded into
// map[string]any can be marshaled to JSON and unmarshaled straight into it.
type GenericAdapter[Config any, Info any, Partial any] struct {
	KindVal models.Kind
	Store   Store[Config, Info]
}

func NewGenericAdapter[Config any, Info any, Partial any](kind models.Kind, store Store[Config, Info]) *GenericAdapter[Config, Info, Partial] {
	return &GenericAdapter[Config, Info, Partial]{KindVal: kind, Store: store}
}

func (a *GenericAdapter[Config, Info, Partial]) Kind() models.Kind { return a.KindVal }

func (a *GenericAdapter[Config, Info, Partial]) List(ctx context.Context) ([]Item, error) {
	resources, err := a.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(resources))
	for _, r := range resources {
		items = append(items, Item{ID: r.ID, Name: r.Name, Tags: r.Tags})
	}
	return items, nil
}

func (a *GenericAdapter[Config, Info, Partial]) FindByName(ctx context.Context, name string) (string, bool, error) {
	return a.Store.FindByName(ctx, name)
}

func decodePartial[Partial any](raw map[string]any) (Partial, error) {
	var partial Partial
	b, err := json.Marshal(raw)
	if err != nil {
		return partial, err
	}
	if err := json.Unmarshal(b, &partial); err != nil {
		return partial, err
	}
	return partial, nil
}

func (a *GenericAdapter[Config, Info, Partial]) Diff(ctx context.Context, id string, raw map[string]any) (configdiff.Diff, error) {
	r, err := a.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	partial, err := decodePartial[Partial](raw)
	if err != nil {
		return nil, err
	}
	return configdiff.Compute(r.Config, partial), nil
}

func (a *GenericAdapter[Config, Info, Partial]) Create(ctx context.Context, name string, tags []string, raw map[string]any) (string, error) {
	partial, err := decodePartial[Partial](raw)
	if err != nil {
		return "", err
	}
	var zero Config
	merged, err := configdiff.Merge(zero, partial)
	if err != nil {
		return "", err
	}
	r := &models.Resource[Config, Info]{
		ID:     uuid.NewString(),
		Name:   name,
		Tags:   tags,
		Config: merged,
	}
	if err := a.Store.Upsert(ctx, r); err != nil {
		return "", err
	}
	return r.ID, nil
}

func (a *GenericAdapter[Config, Info, Partial]) Update(ctx context.Context, id string, raw map[string]any) error {
	r, err := a.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	partial, err := decodePartial[Partial](raw)
	if err != nil {
		return err
	}
	merged, err := configdiff.Merge(r.Config, partial)
	if err != nil {
		return err
	}
	r.Config = merged
	return a.Store.Upsert(ctx, r)
}

func (a *GenericAdapter[Config, Info, Partial]) Delete(ctx context.Context, id string) error {
	return a.Store.Delete(ctx, id)
}
