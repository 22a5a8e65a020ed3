package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// SyncStore is the subset of database.ResourceStore the engine needs to
// read a ResourceSync's config and persist its refreshed/applied info.
type SyncStore interface {
	Get(ctx context.Context, id string) (*models.ResourceSync, error)
	Upsert(ctx context.Context, r *models.ResourceSync) error
}

// Engine ties Fetch -> Parse -> Plan -> Apply together behind the two
// operations the RunSync execution handler needs: Refresh (compute and
// persist a preview, no writes to other kinds) and Run (compute, persist,
// and apply).
type Engine struct {
	Adapters map[models.Kind]Adapter
	Fetcher  *RawFetcher
	Syncs    SyncStore
	Now      func() int64
}

func New(adapters map[models.Kind]Adapter, fetcher *RawFetcher, syncs SyncStore, now func() int64) *Engine {
	return &Engine{Adapters: adapters, Fetcher: fetcher, Syncs: syncs, Now: now}
}

// fetchDeclared fetches every configured resource_path file for sync and
// parses them into one flat declared list, along with a content hash used
// to detect whether a refresh actually changed anything.
func (e *Engine) fetchDeclared(ctx context.Context, sync *models.ResourceSync) ([]Declared, string, error) {
	var all []Declared
	h := sha256.New()
	for _, path := range sync.Config.ResourcePath {
		text, err := e.Fetcher.Fetch(ctx, sync.Config.RepoURL, sync.Config.Branch, path)
		if err != nil {
			return nil, "", fmt.Errorf("sync: fetching %s: %w", path, err)
		}
		h.Write([]byte(text))
		declared, err := Parse(text)
		if err != nil {
			return nil, "", fmt.Errorf("sync: parsing %s: %w", path, err)
		}
		all = append(all, declared...)
	}
	return all, hex.EncodeToString(h.Sum(nil)), nil
}

// Refresh fetches the sync's source, computes a plan, and persists it as a
// preview on info.pending without touching any other resource.
func (e *Engine) Refresh(ctx context.Context, syncID string) (*models.PendingSyncData, error) {
	sync, err := e.Syncs.Get(ctx, syncID)
	if err != nil {
		return nil, err
	}

	declared, hash, err := e.fetchDeclared(ctx, sync)
	if err != nil {
		sync.Info.Pending = &models.PendingSync{Error: err.Error()}
		_ = e.Syncs.Upsert(ctx, sync)
		return nil, err
	}

	plan, err := e.Plan(ctx, declared, sync.Config.MatchTags, sync.Config.Delete)
	if err != nil {
		sync.Info.Pending = &models.PendingSync{Error: err.Error()}
		_ = e.Syncs.Upsert(ctx, sync)
		return nil, err
	}

	data := plan.Data()
	sync.Info.Pending = &models.PendingSync{
		Hash:    hash,
		Message: summarize(data),
		Data:    data,
	}
	if err := e.Syncs.Upsert(ctx, sync); err != nil {
		return nil, err
	}
	return data, nil
}

// Run fetches the source, computes a plan, applies it, and clears the
// pending preview, recording the applied hash.
func (e *Engine) Run(ctx context.Context, syncID string) (*models.PendingSyncData, error) {
	sync, err := e.Syncs.Get(ctx, syncID)
	if err != nil {
		return nil, err
	}

	declared, hash, err := e.fetchDeclared(ctx, sync)
	if err != nil {
		sync.Info.Pending = &models.PendingSync{Error: err.Error()}
		_ = e.Syncs.Upsert(ctx, sync)
		return nil, err
	}

	plan, err := e.Plan(ctx, declared, sync.Config.MatchTags, sync.Config.Delete)
	if err != nil {
		sync.Info.Pending = &models.PendingSync{Error: err.Error()}
		_ = e.Syncs.Upsert(ctx, sync)
		return nil, err
	}

	data := plan.Data()
	if err := e.Apply(ctx, plan); err != nil {
		sync.Info.Pending = &models.PendingSync{Hash: hash, Message: summarize(data), Data: data, Error: err.Error()}
		_ = e.Syncs.Upsert(ctx, sync)
		return nil, err
	}

	sync.Info.Pending = nil
	sync.Info.LastSyncHash = hash
	sync.Info.LastSyncTs = e.Now()
	if err := e.Syncs.Upsert(ctx, sync); err != nil {
		return nil, err
	}
	return data, nil
}

func summarize(data *models.PendingSyncData) string {
	var create, update, del int
	for _, c := range data.ByKind {
		create += c.ToCreate
		update += c.ToUpdate
		del += c.ToDelete
	}
	if create == 0 && update == 0 && del == 0 {
		return "no changes"
	}
	parts := make([]string, 0, 3)
	if create > 0 {
		parts = append(parts, fmt.Sprintf("%d to create", create))
	}
	if update > 0 {
		parts = append(parts, fmt.Sprintf("%d to update", update))
	}
	if del > 0 {
		parts = append(parts, fmt.Sprintf("%d to delete", del))
	}
	return strings.Join(parts, ", ")
}
