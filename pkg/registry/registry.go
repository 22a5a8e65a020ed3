// Package registry presents the one uniform contract — identity, shape,
// validation hooks, list projection, busy predicate, lifecycle hooks — that
// pkg/kinds fills in per kind and pkg/api's read/write routes operate over
// instead of switching on each of the eleven resource kinds themselves.
package registry

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/actionstate"
	"github.com/komodo-run/komodo-core/pkg/models"
)

// ListItem is the kind-agnostic envelope returned by list endpoints; Info
// carries kind-specific derived state (usually sourced from the monitoring
// cache) as an opaque value the API layer re-marshals.
type ListItem struct {
	ID             string       `json:"id"`
	Kind           models.Kind  `json:"type"`
	Name           string       `json:"name"`
	Tags           []string     `json:"tags"`
	BasePermission models.Level `json:"base_permission"`
	Info           any          `json:"info"`
}

// KindHandler is the type-erased contract a Handler[Config, Info, Partial]
// satisfies, so the Registry can hold all eleven kinds in one map without
// the generic type parameter leaking into callers that only need the kind
// tag, collection name, or lifecycle hooks.
type KindHandler interface {
	Kind() models.Kind
	CollectionName() string
	DisplayName() string
	ToListItem(ctx context.Context, id string) (*ListItem, error)
	Busy(id string) bool
	PostCreate(ctx context.Context, id string) error
	PostUpdate(ctx context.Context, id string) error
	PreDelete(ctx context.Context, id string) error
	PostDelete(ctx context.Context, id string) error
}

// Registry is the lookup table of KindHandlers, one per resource kind.
type Registry struct {
	handlers map[models.Kind]KindHandler
}

func New() *Registry {
	return &Registry{handlers: make(map[models.Kind]KindHandler)}
}

// Register adds a handler, keyed by its own Kind().
func (r *Registry) Register(h KindHandler) {
	r.handlers[h.Kind()] = h
}

// Get returns the handler for kind, or an error if none is registered.
func (r *Registry) Get(kind models.Kind) (KindHandler, error) {
	h, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("no registry handler for kind %s", kind)
	}
	return h, nil
}

// All returns every registered handler, in AllKinds order.
func (r *Registry) All() []KindHandler {
	out := make([]KindHandler, 0, len(r.handlers))
	for _, k := range models.AllKinds {
		if h, ok := r.handlers[k]; ok {
			out = append(out, h)
		}
	}
	return out
}

// LifecycleHooks are the four named extension points a kind can wire; a
// nil field is a no-op, so most kinds only need to set the ones with real
// side effects (e.g. Procedure recompiling its DAG on PostUpdate).
type LifecycleHooks struct {
	PostCreate func(ctx context.Context, id string) error
	PostUpdate func(ctx context.Context, id string) error
	PreDelete  func(ctx context.Context, id string) error
	PostDelete func(ctx context.Context, id string) error
}

func (h LifecycleHooks) runPostCreate(ctx context.Context, id string) error {
	if h.PostCreate == nil {
		return nil
	}
	return h.PostCreate(ctx, id)
}

func (h LifecycleHooks) runPostUpdate(ctx context.Context, id string) error {
	if h.PostUpdate == nil {
		return nil
	}
	return h.PostUpdate(ctx, id)
}

func (h LifecycleHooks) runPreDelete(ctx context.Context, id string) error {
	if h.PreDelete == nil {
		return nil
	}
	return h.PreDelete(ctx, id)
}

func (h LifecycleHooks) runPostDelete(ctx context.Context, id string) error {
	if h.PostDelete == nil {
		return nil
	}
	return h.PostDelete(ctx, id)
}
