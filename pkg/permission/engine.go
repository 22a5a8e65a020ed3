// Package permission computes a subject's effective access level on a
// resource target by folding together admin status, transparent-mode,
// base_permission, per-kind "all" grants (user and group), and specific
// Permission rows, per the max-merge ordering None < Read < Execute < Write.
package permission

import (
	"context"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// ResourceLookup returns a resource's base_permission for a kind/id pair.
// pkg/registry implements this over the generic Resource[Config, Info]
// store so the engine stays free of per-kind switches.
type ResourceLookup interface {
	BasePermission(ctx context.Context, target models.ResourceTarget) (models.Level, error)
}

// GroupLookup resolves the UserGroups a user belongs to.
type GroupLookup interface {
	GroupsForUser(ctx context.Context, userID string) ([]models.UserGroup, error)
}

// PermissionLookup returns specific grants for a target, scoped to a
// subject's own id and its groups' ids.
type PermissionLookup interface {
	PermissionsForTarget(ctx context.Context, target models.ResourceTarget, subjects []models.UserTarget) ([]models.Permission, error)
}

// Engine computes effective permission levels. TransparentMode, when true,
// grants every subject a floor of Read on every resource.
type Engine struct {
	Resources       ResourceLookup
	Groups          GroupLookup
	Permissions     PermissionLookup
	TransparentMode bool
}

func New(resources ResourceLookup, groups GroupLookup, perms PermissionLookup, transparentMode bool) *Engine {
	return &Engine{Resources: resources, Groups: groups, Permissions: perms, TransparentMode: transparentMode}
}

// EffectiveLevel computes the subject's access level on target, short-
// circuiting at Write (the ceiling) the moment any step reaches it.
func (e *Engine) EffectiveLevel(ctx context.Context, user *models.User, target models.ResourceTarget) (models.Level, error) {
	if user.Admin {
		return models.LevelWrite, nil
	}

	base := models.LevelNone
	if e.TransparentMode {
		base = models.LevelRead
	}

	if rp, ok := user.All[target.Kind]; ok {
		base = models.Max(base, rp)
	}

	if e.Resources != nil {
		resourceBase, err := e.Resources.BasePermission(ctx, target)
		if err != nil {
			return models.LevelNone, err
		}
		base = models.Max(base, resourceBase)
	}

	groups, err := e.groupsFor(ctx, user.ID)
	if err != nil {
		return models.LevelNone, err
	}
	for _, g := range groups {
		if gp, ok := g.All[target.Kind]; ok {
			base = models.Max(base, gp)
		}
	}

	if base == models.LevelWrite {
		return models.LevelWrite, nil
	}

	if e.Permissions == nil {
		return base, nil
	}

	subjects := make([]models.UserTarget, 0, len(groups)+1)
	subjects = append(subjects, models.NewUserTarget(user.ID))
	for _, g := range groups {
		subjects = append(subjects, models.NewGroupTarget(g.ID))
	}

	grants, err := e.Permissions.PermissionsForTarget(ctx, target, subjects)
	if err != nil {
		return models.LevelNone, err
	}
	for _, p := range grants {
		base = models.Max(base, p.Level)
		if base == models.LevelWrite {
			break
		}
	}

	return base, nil
}

func (e *Engine) groupsFor(ctx context.Context, userID string) ([]models.UserGroup, error) {
	if e.Groups == nil {
		return nil, nil
	}
	return e.Groups.GroupsForUser(ctx, userID)
}

// HasLevel reports whether the subject's effective level on target is at
// least min.
func (e *Engine) HasLevel(ctx context.Context, user *models.User, target models.ResourceTarget, min models.Level) (bool, error) {
	level, err := e.EffectiveLevel(ctx, user, target)
	if err != nil {
		return false, err
	}
	return level >= min, nil
}
