// Package actionstate is the single-flight primitive for the execution
// engine: a per-(kind,id) set of boolean busy flags, one per operation
// class, guarded so at most one goroutine at a time can hold a given flag.
package actionstate

import (
	"fmt"
	"sync"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// Flags is the set of named boolean operation-in-progress markers tracked
// for one resource: deploying, starting, stopping, pausing, unpausing,
// removing, updating, renaming, deleting, building, cloning, pulling,
// syncing, testing, launching, running.
type Flags struct {
	Deploying bool
	Starting  bool
	Stopping  bool
	Pausing   bool
	Unpausing bool
	Removing  bool
	Renaming  bool
	Deleting  bool
	Updating  bool
	Building  bool
	Cloning   bool
	Pulling   bool
	Syncing   bool
	Testing   bool
	Launching bool
	Running   bool
}

// Busy reports whether any flag is set.
func (f Flags) Busy() bool {
	return f.Deploying || f.Starting || f.Stopping || f.Pausing || f.Unpausing ||
		f.Removing || f.Renaming || f.Deleting || f.Updating || f.Building ||
		f.Cloning || f.Pulling || f.Syncing || f.Testing || f.Launching || f.Running
}

// Flag identifies one field of Flags by name, used so callers can reference
// an operation class without the cache needing a per-kind switch.
type Flag string

const (
	FlagDeploying Flag = "Deploying"
	FlagStarting  Flag = "Starting"
	FlagStopping  Flag = "Stopping"
	FlagPausing   Flag = "Pausing"
	FlagUnpausing Flag = "Unpausing"
	FlagRemoving  Flag = "Removing"
	FlagRenaming  Flag = "Renaming"
	FlagDeleting  Flag = "Deleting"
	FlagUpdating  Flag = "Updating"
	FlagBuilding  Flag = "Building"
	FlagCloning   Flag = "Cloning"
	FlagPulling   Flag = "Pulling"
	FlagSyncing   Flag = "Syncing"
	FlagTesting   Flag = "Testing"
	FlagLaunching Flag = "Launching"
	FlagRunning   Flag = "Running"
)

func (f *Flags) get(flag Flag) bool {
	switch flag {
	case FlagDeploying:
		return f.Deploying
	case FlagStarting:
		return f.Starting
	case FlagStopping:
		return f.Stopping
	case FlagPausing:
		return f.Pausing
	case FlagUnpausing:
		return f.Unpausing
	case FlagRemoving:
		return f.Removing
	case FlagRenaming:
		return f.Renaming
	case FlagDeleting:
		return f.Deleting
	case FlagUpdating:
		return f.Updating
	case FlagBuilding:
		return f.Building
	case FlagCloning:
		return f.Cloning
	case FlagPulling:
		return f.Pulling
	case FlagSyncing:
		return f.Syncing
	case FlagTesting:
		return f.Testing
	case FlagLaunching:
		return f.Launching
	case FlagRunning:
		return f.Running
	default:
		return false
	}
}

func (f *Flags) set(flag Flag, v bool) {
	switch flag {
	case FlagDeploying:
		f.Deploying = v
	case FlagStarting:
		f.Starting = v
	case FlagStopping:
		f.Stopping = v
	case FlagPausing:
		f.Pausing = v
	case FlagUnpausing:
		f.Unpausing = v
	case FlagRemoving:
		f.Removing = v
	case FlagRenaming:
		f.Renaming = v
	case FlagDeleting:
		f.Deleting = v
	case FlagUpdating:
		f.Updating = v
	case FlagBuilding:
		f.Building = v
	case FlagCloning:
		f.Cloning = v
	case FlagPulling:
		f.Pulling = v
	case FlagSyncing:
		f.Syncing = v
	case FlagTesting:
		f.Testing = v
	case FlagLaunching:
		f.Launching = v
	case FlagRunning:
		f.Running = v
	}
}

type key struct {
	kind models.Kind
	id   string
}

// Cache holds one Flags struct per (kind, id), each guarded by its own
// mutex so guards on distinct ids never contend.
type Cache struct {
	mu      sync.Mutex
	entries map[key]*entry
}

type entry struct {
	mu    sync.Mutex
	flags Flags
}

func NewCache() *Cache {
	return &Cache{entries: make(map[key]*entry)}
}

func (c *Cache) getOrInsert(k key) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{}
		c.entries[k] = e
	}
	return e
}

// Busy reports whether any flag is set for (kind, id).
func (c *Cache) Busy(target models.ResourceTarget) bool {
	e := c.getOrInsert(key{target.Kind, target.ID})
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flags.Busy()
}

// Flags returns a copy of the current flags for (kind, id).
func (c *Cache) Flags(target models.ResourceTarget) Flags {
	e := c.getOrInsert(key{target.Kind, target.ID})
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flags
}

// ErrBusy is returned by Guard when the requested flag is already set.
type ErrBusy struct {
	Target models.ResourceTarget
	Flag   Flag
}

func (e *ErrBusy) Error() string {
	return fmt.Sprintf("%s is already busy with %s", e.Target, e.Flag)
}

// Handle releases its guarded flag exactly once. Safe to call Release from
// a deferred call on every exit path, including panics (the defer still
// runs during a panicking unwind).
type Handle struct {
	release func()
	once    sync.Once
}

func (h *Handle) Release() {
	h.once.Do(h.release)
}

// Guard atomically checks flag is clear, sets it, and returns a Handle
// whose Release clears it again. If flag is already set, it returns
// ErrBusy and a nil Handle.
func (c *Cache) Guard(target models.ResourceTarget, flag Flag) (*Handle, error) {
	e := c.getOrInsert(key{target.Kind, target.ID})
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.flags.get(flag) {
		return nil, &ErrBusy{Target: target, Flag: flag}
	}
	e.flags.set(flag, true)

	return &Handle{release: func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.flags.set(flag, false)
	}}, nil
}
