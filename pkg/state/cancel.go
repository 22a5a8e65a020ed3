package state

import (
	"context"
	"sync"

	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// CancelTracker guards against two CancelBuild executions running
// concurrently for the same build. It sits outside execution.Engine's
// busy-flag guard because CancelBuild itself carries no actionstate.Flag
// (cancelling must stay possible while the build it targets holds
// FlagBuilding).
type CancelTracker struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

func NewCancelTracker() *CancelTracker {
	return &CancelTracker{inFlight: make(map[string]bool)}
}

// Start claims buildID, returning false if a cancel is already in flight
// for it.
func (t *CancelTracker) Start(buildID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inFlight[buildID] {
		return false
	}
	t.inFlight[buildID] = true
	return true
}

func (t *CancelTracker) Finish(buildID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inFlight, buildID)
}

// CancelBuildHandler wraps execution.CancelBuildHandler with the tracker's
// conflict check performed outside the inner handler, so Start can't
// observe its own claim as a pre-existing conflict.
func CancelBuildHandler(tracker *CancelTracker, broadcaster *execution.Broadcaster) execution.Handler {
	inner := execution.CancelBuildHandler(broadcaster, nil)
	return func(ctx context.Context, req execution.ExecuteRequest, journal *update.Journal, u *models.Update) error {
		if !tracker.Start(req.Target.ID) {
			return &execution.ErrCancelConflict{BuildID: req.Target.ID}
		}
		defer tracker.Finish(req.Target.ID)
		return inner(ctx, req, journal, u)
	}
}
