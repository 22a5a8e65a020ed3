package sync

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// procedureApplyMaxIterations bounds the fixed-point loop ApplyProcedures
// uses to let forward-referencing procedures (one procedure's executions
// naming another procedure that is itself still pending creation) resolve
// across passes, per spec.md §4.6.2.
const procedureApplyMaxIterations = 10

// Apply executes every planned create/update/delete through each kind's
// adapter. A failure on one kind does not roll back resources already
// applied for another; the returned error names the kind and resource that
// failed so a retry after a fixed source only needs to redo stragglers
// (Create/Update are idempotent replace-by-id, Upsert-backed).
//
// Procedure is applied last and through ApplyProcedures instead of
// applyKind: procedures can reference other procedures by name, so a
// declared procedure may fail to create/update on a given pass only because
// a sibling procedure it points at hasn't been created yet. Every other
// kind is order-independent and uses the plain single-pass apply.
func (e *Engine) Apply(ctx context.Context, plan *Plan) error {
	for kind, kp := range plan.ByKind {
		if kind == models.KindProcedure {
			continue
		}
		adapter, ok := e.Adapters[kind]
		if !ok {
			return fmt.Errorf("sync: no adapter registered for kind %s", kind)
		}
		if err := applyKind(ctx, adapter, kind, kp); err != nil {
			return err
		}
	}
	if kp, ok := plan.ByKind[models.KindProcedure]; ok {
		adapter, ok := e.Adapters[models.KindProcedure]
		if !ok {
			return fmt.Errorf("sync: no adapter registered for kind %s", models.KindProcedure)
		}
		if err := e.ApplyProcedures(ctx, adapter, kp); err != nil {
			return err
		}
	}
	return nil
}

// ApplyProcedures creates/updates the procedure worklist in a fixed-point
// loop of up to procedureApplyMaxIterations passes: each pass attempts every
// remaining create/update, drops the ones that succeed, and retries the
// stragglers next pass. This lets a procedure whose executions reference a
// sibling procedure still on the worklist succeed once that sibling has been
// created by an earlier pass, without the caller needing to topologically
// sort the declared set first. Deletes never reference other procedures and
// always apply on the first pass. If any create/update is still outstanding
// after the iteration budget, its last error is returned.
func (e *Engine) ApplyProcedures(ctx context.Context, adapter Adapter, kp *KindPlan) error {
	for _, d := range kp.ToDelete {
		if err := adapter.Delete(ctx, d.ID); err != nil {
			return fmt.Errorf("sync: delete %s %s: %w", models.KindProcedure, d.Name, err)
		}
	}

	toCreate := append([]PlannedCreate(nil), kp.ToCreate...)
	toUpdate := append([]PlannedUpdate(nil), kp.ToUpdate...)

	var lastErr error
	for i := 0; i < procedureApplyMaxIterations && (len(toCreate) > 0 || len(toUpdate) > 0); i++ {
		final := i == procedureApplyMaxIterations-1

		var remainingCreate []PlannedCreate
		for _, c := range toCreate {
			if _, err := adapter.Create(ctx, c.Name, c.Tags, c.Config); err != nil {
				lastErr = fmt.Errorf("sync: create %s %s: %w", models.KindProcedure, c.Name, err)
				if final {
					return lastErr
				}
				remainingCreate = append(remainingCreate, c)
				continue
			}
			lastErr = nil
		}
		toCreate = remainingCreate

		var remainingUpdate []PlannedUpdate
		for _, u := range toUpdate {
			if err := adapter.Update(ctx, u.ID, u.Config); err != nil {
				lastErr = fmt.Errorf("sync: update %s %s: %w", models.KindProcedure, u.Name, err)
				if final {
					return lastErr
				}
				remainingUpdate = append(remainingUpdate, u)
				continue
			}
			lastErr = nil
		}
		toUpdate = remainingUpdate
	}

	if len(toCreate) > 0 || len(toUpdate) > 0 {
		if lastErr != nil {
			return fmt.Errorf("sync: procedure apply did not converge after %d iterations: %w", procedureApplyMaxIterations, lastErr)
		}
		return fmt.Errorf("sync: procedure apply did not converge after %d iterations", procedureApplyMaxIterations)
	}
	return nil
}

func applyKind(ctx context.Context, adapter Adapter, kind models.Kind, kp *KindPlan) error {
	for _, c := range kp.ToCreate {
		if _, err := adapter.Create(ctx, c.Name, c.Tags, c.Config); err != nil {
			return fmt.Errorf("sync: create %s %s: %w", kind, c.Name, err)
		}
	}
	for _, u := range kp.ToUpdate {
		if err := adapter.Update(ctx, u.ID, u.Config); err != nil {
			return fmt.Errorf("sync: update %s %s: %w", kind, u.Name, err)
		}
	}
	for _, d := range kp.ToDelete {
		if err := adapter.Delete(ctx, d.ID); err != nil {
			return fmt.Errorf("sync: delete %s %s: %w", kind, d.Name, err)
		}
	}
	return nil
}

// Counts renders a KindPlan as the persisted summary shape.
func (kp *KindPlan) Counts() models.SyncUpdateCounts {
	return models.SyncUpdateCounts{
		ToCreate: len(kp.ToCreate),
		ToUpdate: len(kp.ToUpdate),
		ToDelete: len(kp.ToDelete),
		Log:      kp.Log,
	}
}

// Data renders a full Plan as the PendingSyncData persisted onto a
// ResourceSync's info.pending.
func (p *Plan) Data() *models.PendingSyncData {
	byKind := make(map[models.Kind]models.SyncUpdateCounts, len(p.ByKind))
	for kind, kp := range p.ByKind {
		byKind[kind] = kp.Counts()
	}
	return &models.PendingSyncData{ByKind: byKind}
}
