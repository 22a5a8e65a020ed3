package registry

import (
	"context"

	"github.com/komodo-run/komodo-core/pkg/actionstate"
	"github.com/komodo-run/komodo-core/pkg/configdiff"
	"github.com/komodo-run/komodo-core/pkg/models"
)

// Store is the thin collection handle the registry is allowed to touch;
// everything else goes through pkg/database's generic Get/List/Upsert/
// Delete functions, so the registry never leaks storage details itself.
type Store[Config any, Info any] interface {
	Get(ctx context.Context, id string) (*models.Resource[Config, Info], error)
}

// Validator holds the four validation hooks. Each is optional; a nil func
// is treated as "always valid" / "no normalization".
type Validator[Partial any] struct {
	ValidateCreate func(ctx context.Context, partial Partial, subject *models.User) error
	ValidateUpdate func(ctx context.Context, id string, partial Partial, subject *models.User) error
	ValidatePartial func(partial Partial) Partial
	ValidateDiff    func(diff configdiff.Diff) configdiff.Diff
}

// ListProjector builds a kind-specific ListItem.Info payload for one
// resource, typically by consulting the monitoring cache for derived state.
type ListProjector[Config any, Info any] func(ctx context.Context, r *models.Resource[Config, Info]) (any, error)

// Handler is the generic KindHandler implementation; every concrete kind
// instantiates one of these instead of hand-writing CRUD/diff/validate
// plumbing eleven times.
type Handler[Config any, Info any, Partial any] struct {
	kind       models.Kind
	store      Store[Config, Info]
	actions    *actionstate.Cache
	busyFlags  []actionstate.Flag
	validator  Validator[Partial]
	project    ListProjector[Config, Info]
	lifecycle  LifecycleHooks
}

// NewHandler constructs a Handler. busyFlags names which actionstate flags
// count toward this kind's Busy predicate (e.g. Deployment watches
// Deploying/Starting/Stopping/..., Build only watches Building).
func NewHandler[Config any, Info any, Partial any](
	kind models.Kind,
	store Store[Config, Info],
	actions *actionstate.Cache,
	busyFlags []actionstate.Flag,
	validator Validator[Partial],
	project ListProjector[Config, Info],
	lifecycle LifecycleHooks,
) *Handler[Config, Info, Partial] {
	return &Handler[Config, Info, Partial]{
		kind:      kind,
		store:     store,
		actions:   actions,
		busyFlags: busyFlags,
		validator: validator,
		project:   project,
		lifecycle: lifecycle,
	}
}

func (h *Handler[Config, Info, Partial]) Kind() models.Kind        { return h.kind }
func (h *Handler[Config, Info, Partial]) CollectionName() string  { return h.kind.Collection() }
func (h *Handler[Config, Info, Partial]) DisplayName() string     { return string(h.kind) }

func (h *Handler[Config, Info, Partial]) ToListItem(ctx context.Context, id string) (*ListItem, error) {
	r, err := h.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var info any
	if h.project != nil {
		info, err = h.project(ctx, r)
		if err != nil {
			return nil, err
		}
	}
	return &ListItem{
		ID:             r.ID,
		Kind:           h.kind,
		Name:           r.Name,
		Tags:           r.Tags,
		BasePermission: r.BasePermission,
		Info:           info,
	}, nil
}

// Busy reports true if any of this kind's watched action-state flags are
// set for id.
func (h *Handler[Config, Info, Partial]) Busy(id string) bool {
	if h.actions == nil || len(h.busyFlags) == 0 {
		return false
	}
	target := models.NewTarget(h.kind, id)
	flags := h.actions.Flags(target)
	for _, f := range h.busyFlags {
		if flagSet(flags, f) {
			return true
		}
	}
	return false
}

func flagSet(flags actionstate.Flags, flag actionstate.Flag) bool {
	switch flag {
	case actionstate.FlagDeploying:
		return flags.Deploying
	case actionstate.FlagStarting:
		return flags.Starting
	case actionstate.FlagStopping:
		return flags.Stopping
	case actionstate.FlagPausing:
		return flags.Pausing
	case actionstate.FlagUnpausing:
		return flags.Unpausing
	case actionstate.FlagRemoving:
		return flags.Removing
	case actionstate.FlagRenaming:
		return flags.Renaming
	case actionstate.FlagDeleting:
		return flags.Deleting
	case actionstate.FlagUpdating:
		return flags.Updating
	case actionstate.FlagBuilding:
		return flags.Building
	case actionstate.FlagCloning:
		return flags.Cloning
	case actionstate.FlagPulling:
		return flags.Pulling
	case actionstate.FlagSyncing:
		return flags.Syncing
	case actionstate.FlagTesting:
		return flags.Testing
	case actionstate.FlagLaunching:
		return flags.Launching
	case actionstate.FlagRunning:
		return flags.Running
	default:
		return false
	}
}

func (h *Handler[Config, Info, Partial]) PostCreate(ctx context.Context, id string) error {
	return h.lifecycle.runPostCreate(ctx, id)
}

func (h *Handler[Config, Info, Partial]) PostUpdate(ctx context.Context, id string) error {
	return h.lifecycle.runPostUpdate(ctx, id)
}

func (h *Handler[Config, Info, Partial]) PreDelete(ctx context.Context, id string) error {
	return h.lifecycle.runPreDelete(ctx, id)
}

func (h *Handler[Config, Info, Partial]) PostDelete(ctx context.Context, id string) error {
	return h.lifecycle.runPostDelete(ctx, id)
}

// ValidateCreate, ValidateUpdate, NormalizePartial, ScrubDiff, Merge and Diff
// are not part of KindHandler (they need the concrete Partial type), so they
// are reachable only through a concrete *Handler[Config, Info, Partial].

func (h *Handler[Config, Info, Partial]) ValidateCreate(ctx context.Context, partial Partial, subject *models.User) error {
	if h.validator.ValidateCreate == nil {
		return nil
	}
	return h.validator.ValidateCreate(ctx, partial, subject)
}

func (h *Handler[Config, Info, Partial]) ValidateUpdate(ctx context.Context, id string, partial Partial, subject *models.User) error {
	if h.validator.ValidateUpdate == nil {
		return nil
	}
	return h.validator.ValidateUpdate(ctx, id, partial, subject)
}

func (h *Handler[Config, Info, Partial]) NormalizePartial(partial Partial) Partial {
	if h.validator.ValidatePartial == nil {
		return partial
	}
	return h.validator.ValidatePartial(partial)
}

func (h *Handler[Config, Info, Partial]) ScrubDiff(diff configdiff.Diff) configdiff.Diff {
	if h.validator.ValidateDiff == nil {
		return diff
	}
	return h.validator.ValidateDiff(diff)
}

// Merge applies partial onto current per configdiff's tag-driven rules.
func (h *Handler[Config, Info, Partial]) Merge(current Config, partial Partial) (Config, error) {
	return configdiff.Merge(current, partial)
}

// Diff computes the scrubbed field-level diff between current and partial.
func (h *Handler[Config, Info, Partial]) Diff(current Config, partial Partial) configdiff.Diff {
	return h.ScrubDiff(configdiff.Compute(current, partial))
}
