package execution

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/actionstate"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/permission"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// ErrForbidden is returned when the subject's effective level is below
// Execute for the request's target.
type ErrForbidden struct {
	Target models.ResourceTarget
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s requires Execute permission", e.Target)
}

// Handler performs the actual operation for one request type. It receives
// the live Update so it can append logs as work proceeds;
// a returned error finalizes the Update with success=false.
type Handler func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error

// Engine dispatches ExecuteRequests: resolve subject, init the Update,
// acquire the single-flight guard, run the registered Handler, finalize.
type Engine struct {
	Permissions *permission.Engine
	Actions     *actionstate.Cache
	Journal     *update.Journal
	Handlers    map[RequestType]Handler
}

func New(perms *permission.Engine, actions *actionstate.Cache, journal *update.Journal) *Engine {
	return &Engine{Permissions: perms, Actions: actions, Journal: journal, Handlers: make(map[RequestType]Handler)}
}

func (e *Engine) Register(t RequestType, h Handler) {
	e.Handlers[t] = h
}

// Execute runs req synchronously and returns the finalized Update. pkg/api's
// /execute calls it directly, so the HTTP response is sent only after the
// operation has finished; the engine itself doesn't assume a particular
// concurrency wrapper.
func (e *Engine) Execute(ctx context.Context, req ExecuteRequest, user *models.User) (*models.Update, error) {
	ok, err := e.Permissions.HasLevel(ctx, user, req.Target, models.LevelExecute)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ErrForbidden{Target: req.Target}
	}

	handler, ok := e.Handlers[req.Type]
	if !ok {
		return nil, fmt.Errorf("execution: no handler registered for %s", req.Type)
	}

	var release func()
	if flag, hasFlag := busyFlagFor(req.Type); hasFlag {
		handle, err := e.Actions.Guard(req.Target, flag)
		if err != nil {
			return nil, err
		}
		release = handle.Release
	}
	if release != nil {
		defer release()
	}

	u, err := e.Journal.Init(ctx, req.Target, operationFor(req.Type), user.ID)
	if err != nil {
		return nil, err
	}

	if err := handler(ctx, req, e.Journal, u); err != nil {
		_ = e.Journal.AppendLog(ctx, u, models.Log{Stage: "error", Stderr: err.Error(), Success: false})
		_ = e.Journal.Finalize(ctx, u, true)
		return u, nil
	}

	if err := e.Journal.Finalize(ctx, u, false); err != nil {
		return nil, err
	}
	return u, nil
}
