package sync

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// Plan is the full cross-kind plan computed by Engine.Plan, ready to either
// render as PendingSyncData or hand to Apply.
type Plan struct {
	ByKind map[models.Kind]*KindPlan
}

// KindPlan is one kind's contribution to a Plan: which declared resources
// are new, which existing ones changed, and which persisted resources the
// declared set no longer mentions.
type KindPlan struct {
	ToCreate []PlannedCreate
	ToUpdate []PlannedUpdate
	ToDelete []PlannedDelete
	Log      []string
}

type PlannedCreate struct {
	Name   string
	Tags   []string
	Config map[string]any
}

type PlannedUpdate struct {
	ID     string
	Name   string
	Config map[string]any
	Diff   map[string]FieldSummary
}

type FieldSummary struct {
	From any
	To   any
}

type PlannedDelete struct {
	ID   string
	Name string
}

// matchesTags reports whether a resource's tags satisfy a sync's configured
// match_tags filter (empty filter matches everything).
func matchesTags(tags, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	want := make(map[string]bool, len(filter))
	for _, t := range filter {
		want[t] = true
	}
	for _, t := range tags {
		if want[t] {
			return true
		}
	}
	return false
}

// Plan computes the create/update/delete sets for every kind an adapter is
// registered for,: declared resources are matched to
// persisted ones by name; a declared resource with no match is a create; a
// match with a non-empty diff is an update; a persisted resource with
// matching tags but no declaration is a delete candidate, only acted on
// when allowDelete is true (ResourceSyncConfig.Delete).
func (e *Engine) Plan(ctx context.Context, declared []Declared, matchTags []string, allowDelete bool) (*Plan, error) {
	declaredByKind := make(map[models.Kind][]Declared)
	for _, d := range declared {
		if !matchesTags(d.Tags, matchTags) {
			continue
		}
		declaredByKind[d.Kind] = append(declaredByKind[d.Kind], d)
	}

	plan := &Plan{ByKind: make(map[models.Kind]*KindPlan)}
	for kind, adapter := range e.Adapters {
		kp := &KindPlan{}
		seen := make(map[string]bool)

		for _, d := range declaredByKind[kind] {
			seen[d.Name] = true
			id, exists, err := adapter.FindByName(ctx, d.Name)
			if err != nil {
				return nil, err
			}
			if !exists {
				kp.ToCreate = append(kp.ToCreate, PlannedCreate{Name: d.Name, Tags: d.Tags, Config: d.Config})
				kp.Log = append(kp.Log, fmt.Sprintf("CREATE %s %s", kind, d.Name))
				continue
			}
			diff, err := adapter.Diff(ctx, id, d.Config)
			if err != nil {
				return nil, err
			}
			if diff.IsEmpty() {
				continue
			}
			fields := make(map[string]FieldSummary, len(diff))
			for name, fd := range diff {
				fields[name] = FieldSummary{From: fd.From, To: fd.To}
			}
			kp.ToUpdate = append(kp.ToUpdate, PlannedUpdate{ID: id, Name: d.Name, Config: d.Config, Diff: fields})
			kp.Log = append(kp.Log, fmt.Sprintf("UPDATE %s %s: %d field(s) changed", kind, d.Name, len(diff)))
		}

		if allowDelete {
			items, err := adapter.List(ctx)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				if seen[item.Name] || !matchesTags(item.Tags, matchTags) {
					continue
				}
				kp.ToDelete = append(kp.ToDelete, PlannedDelete{ID: item.ID, Name: item.Name})
				kp.Log = append(kp.Log, fmt.Sprintf("DELETE %s %s", kind, item.Name))
			}
		}

		if len(kp.ToCreate) > 0 || len(kp.ToUpdate) > 0 || len(kp.ToDelete) > 0 {
			plan.ByKind[kind] = kp
		}
	}
	return plan, nil
}
