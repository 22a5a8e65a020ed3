// Package update implements the append-only Update journal: writers persist
// an Update before any side-effect, append Logs as work proceeds, and
// finalize it on completion. A Broadcaster fans out the ids of updated
// records to subscribers.
package update

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// Store persists Update records. pkg/database provides the mongo-backed
// implementation; the journal only needs Insert/Save/get-by-id.
type Store interface {
	InsertUpdate(ctx context.Context, u *models.Update) error
	SaveUpdate(ctx context.Context, u *models.Update) error
	GetUpdate(ctx context.Context, id string) (*models.Update, error)
}

// RecoveryStore additionally lists Updates left InProgress, the shape
// RecoverIncomplete needs on startup. pkg/database.Client satisfies it.
type RecoveryStore interface {
	Store
	InProgressUpdates(ctx context.Context) ([]models.Update, error)
}

// Clock returns the current unix-millis time. Exists so tests can supply a
// deterministic clock instead of wall time.
type Clock func() int64

func WallClock() int64 { return time.Now().UnixMilli() }

// Journal coordinates Update lifecycle writes and broadcasts.
type Journal struct {
	store       Store
	broadcaster *Broadcaster
	clock       Clock
}

func New(store Store, broadcaster *Broadcaster, clock Clock) *Journal {
	if clock == nil {
		clock = WallClock
	}
	return &Journal{store: store, broadcaster: broadcaster, clock: clock}
}

// Init creates and persists a new InProgress Update for target/operation
// before any side-effect runs.
func (j *Journal) Init(ctx context.Context, target models.ResourceTarget, operation models.Operation, operator string) (*models.Update, error) {
	u := &models.Update{
		ID:        uuid.NewString(),
		Target:    target,
		Operation: operation,
		StartTs:   j.clock(),
		Status:    models.UpdateStatusInProgress,
		Operator:  operator,
	}
	if err := j.store.InsertUpdate(ctx, u); err != nil {
		return nil, err
	}
	j.broadcast(u.ID)
	return u, nil
}

// AppendLog appends a log entry and flushes the Update, so observers
// polling or subscribed to the broadcast see incremental progress.
func (j *Journal) AppendLog(ctx context.Context, u *models.Update, log models.Log) error {
	u.Logs = append(u.Logs, log)
	if err := j.store.SaveUpdate(ctx, u); err != nil {
		return err
	}
	j.broadcast(u.ID)
	return nil
}

// Finalize sets end_ts, status Complete, and success = AND(log.success)
// unless forceFailure is true.
func (j *Journal) Finalize(ctx context.Context, u *models.Update, forceFailure bool) error {
	u.EndTs = j.clock()
	u.Status = models.UpdateStatusComplete
	u.Success = u.AllLogsSuccessful() && !forceFailure
	if err := j.store.SaveUpdate(ctx, u); err != nil {
		return err
	}
	j.broadcast(u.ID)
	return nil
}

func (j *Journal) broadcast(id string) {
	if j.broadcaster != nil {
		j.broadcaster.Publish(id)
	}
}

// RecoverIncomplete transitions every Update left InProgress — from a
// process that exited mid-operation — to Complete/success=false with a
// synthesized "shutdown" log, so no Update is left dangling across a
// restart. Call once during startup, before the monitoring loop or any
// webhook route is wired up.
func RecoverIncomplete(ctx context.Context, store RecoveryStore, clock Clock) (int, error) {
	if clock == nil {
		clock = WallClock
	}
	stale, err := store.InProgressUpdates(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing in-progress updates: %w", err)
	}
	now := clock()
	for i := range stale {
		u := &stale[i]
		u.Logs = append(u.Logs, models.Log{
			Stage:   "shutdown",
			Stdout:  "core process exited before this operation finished",
			Success: false,
			StartTs: now,
			EndTs:   now,
		})
		u.EndTs = now
		u.Status = models.UpdateStatusComplete
		u.Success = false
		if err := store.SaveUpdate(ctx, u); err != nil {
			return 0, fmt.Errorf("finalizing stale update %s: %w", u.ID, err)
		}
	}
	return len(stale), nil
}
