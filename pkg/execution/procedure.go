package execution

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// Stage is one sequential step of a Procedure: its executions run
// concurrently with each other.
type Stage struct {
	Executions []ExecuteRequest
}

// ProcedureLookup resolves a Procedure id to its stage list.
type ProcedureLookup interface {
	Stages(ctx context.Context, procedureID string) ([]Stage, error)
}

// UserLookup resolves the user id recorded as an Update's operator back to
// the full User the permission engine needs. pkg/database.Client satisfies
// this directly.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type visitedKey struct{}

// visited returns the set of procedure ids already on the current call
// chain, carried through context.Context since nested executions run
// through the same Engine.Execute entry point a top-level request does and
// have no other channel back to this package's recursion state.
func visited(ctx context.Context) map[string]bool {
	if v, ok := ctx.Value(visitedKey{}).(map[string]bool); ok {
		return v
	}
	return nil
}

func withVisited(ctx context.Context, id string) context.Context {
	prev := visited(ctx)
	next := make(map[string]bool, len(prev)+1)
	for k := range prev {
		next[k] = true
	}
	next[id] = true
	return context.WithValue(ctx, visitedKey{}, next)
}

// RunProcedureHandler runs stages sequentially; a stage is successful iff
// every execution in it succeeds; the procedure fails (and stops) as soon
// as a stage fails.
//
// Every execution in every stage — including a nested RunProcedure — is
// dispatched through engine.Execute, the same entry point a top-level
// request comes through: each child gets its own permission check, its own
// action-state guard, and its own Update record, exactly as spec.md §4.5.6
// and the original source's execute_execution/self.resolve(req, user)
// require. The visited set threaded through the request context (rather
// than passed as a parameter) is what lets this package still reject
// mutual recursion between procedures even though nested RunProcedure
// requests now loop back out through the engine instead of recursing
// in-package.
func RunProcedureHandler(lookup ProcedureLookup, engine *Engine, users UserLookup) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		if visited(ctx)[req.Target.ID] {
			return fmt.Errorf("cannot have self-referential procedure: %s", req.Target.ID)
		}
		ctx = withVisited(ctx, req.Target.ID)

		user, err := users.GetUser(ctx, u.Operator)
		if err != nil {
			return fmt.Errorf("procedure: resolve operator %s: %w", u.Operator, err)
		}

		return runProcedure(ctx, lookup, engine, req.Target.ID, journal, u, user)
	}
}

func runProcedure(ctx context.Context, lookup ProcedureLookup, engine *Engine, procedureID string, journal *update.Journal, u *models.Update, user *models.User) error {
	stages, err := lookup.Stages(ctx, procedureID)
	if err != nil {
		return err
	}

	for i, stage := range stages {
		results := make([]error, len(stage.Executions))
		done := make(chan int, len(stage.Executions))

		for idx, exec := range stage.Executions {
			idx, exec := idx, exec
			go func() {
				results[idx] = runChildExecution(ctx, engine, exec, user)
				done <- idx
			}()
		}
		for range stage.Executions {
			<-done
		}

		for _, err := range results {
			if err != nil {
				return fmt.Errorf("stage %d failed: %w", i, err)
			}
		}
		if err := journal.AppendLog(ctx, u, models.Log{Stage: fmt.Sprintf("stage %d", i), Success: true}); err != nil {
			return err
		}
	}
	return nil
}

// runChildExecution dispatches one stage entry through the full execution
// pipeline as the procedure's own operator, so it gets the same permission
// check, single-flight guard, and standalone Update record any other
// execution gets. A pipeline error (forbidden, busy, unregistered type)
// fails the stage immediately; a pipeline success whose Update finalized
// with success=false also fails the stage, since stage success is defined
// as every child Update succeeding, not merely being created.
func runChildExecution(ctx context.Context, engine *Engine, exec ExecuteRequest, user *models.User) error {
	child, err := engine.Execute(ctx, exec, user)
	if err != nil {
		return fmt.Errorf("%s on %s: %w", exec.Type, exec.Target, err)
	}
	if !child.Success {
		return fmt.Errorf("%s on %s did not succeed", exec.Type, exec.Target)
	}
	return nil
}
