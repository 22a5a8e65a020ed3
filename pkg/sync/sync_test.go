package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// fakeStore is an in-memory Store[Config,Info] keyed by id, used to back a
// GenericAdapter in tests without a real database.Client.
type fakeStore[Config any, Info any] struct {
	byID map[string]*models.Resource[Config, Info]
}

func newFakeStore[Config any, Info any]() *fakeStore[Config, Info] {
	return &fakeStore[Config, Info]{byID: make(map[string]*models.Resource[Config, Info])}
}

func (s *fakeStore[Config, Info]) Get(_ context.Context, id string) (*models.Resource[Config, Info], error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, assert.AnError
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore[Config, Info]) List(_ context.Context) ([]models.Resource[Config, Info], error) {
	out := make([]models.Resource[Config, Info], 0, len(s.byID))
	for _, r := range s.byID {
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeStore[Config, Info]) Upsert(_ context.Context, r *models.Resource[Config, Info]) error {
	cp := *r
	s.byID[r.ID] = &cp
	return nil
}

func (s *fakeStore[Config, Info]) Delete(_ context.Context, id string) error {
	delete(s.byID, id)
	return nil
}

func (s *fakeStore[Config, Info]) FindByName(_ context.Context, name string) (string, bool, error) {
	for id, r := range s.byID {
		if r.Name == name {
			return id, true, nil
		}
	}
	return "", false, nil
}

func repoAdapter(store *fakeStore[models.RepoConfig, models.RepoInfo]) Adapter {
	return NewGenericAdapter[models.RepoConfig, models.RepoInfo, models.RepoPartialConfig](models.KindRepo, store)
}

const sampleTOML = `
[[repo]]
name = "api"
tags = ["backend"]
config.server_id = "srv-1"
config.repo_url = "https://github.com/acme/api"
config.branch = "main"
`

func TestParseFlattensResourceFile(t *testing.T) {
	declared, err := Parse(sampleTOML)
	require.NoError(t, err)
	require.Len(t, declared, 1)
	assert.Equal(t, models.KindRepo, declared[0].Kind)
	assert.Equal(t, "api", declared[0].Name)
	assert.Equal(t, []string{"backend"}, declared[0].Tags)
	assert.Equal(t, "srv-1", declared[0].Config["server_id"])
}

func TestParseRejectsInvalidTOML(t *testing.T) {
	_, err := Parse("this is not [ valid toml")
	assert.Error(t, err)
}

func newRepoEngine() (*Engine, *fakeStore[models.RepoConfig, models.RepoInfo]) {
	store := newFakeStore[models.RepoConfig, models.RepoInfo]()
	adapters := map[models.Kind]Adapter{models.KindRepo: repoAdapter(store)}
	return &Engine{Adapters: adapters}, store
}

func TestPlanCreatesWhenNoMatchingNameExists(t *testing.T) {
	e, _ := newRepoEngine()
	declared := []Declared{{Kind: models.KindRepo, Name: "api", Config: map[string]any{"repo_url": "https://github.com/acme/api"}}}

	plan, err := e.Plan(context.Background(), declared, nil, false)
	require.NoError(t, err)
	kp := plan.ByKind[models.KindRepo]
	require.NotNil(t, kp)
	assert.Len(t, kp.ToCreate, 1)
	assert.Empty(t, kp.ToUpdate)
	assert.Empty(t, kp.ToDelete)
}

func TestPlanUpdatesWhenConfigDiffers(t *testing.T) {
	e, store := newRepoEngine()
	id := uuid.NewString()
	store.byID[id] = &models.Resource[models.RepoConfig, models.RepoInfo]{
		ID: id, Name: "api", Config: models.RepoConfig{RepoURL: "https://github.com/acme/old", Branch: "main"},
	}
	declared := []Declared{{Kind: models.KindRepo, Name: "api", Config: map[string]any{"repo_url": "https://github.com/acme/api"}}}

	plan, err := e.Plan(context.Background(), declared, nil, false)
	require.NoError(t, err)
	kp := plan.ByKind[models.KindRepo]
	require.NotNil(t, kp)
	require.Len(t, kp.ToUpdate, 1)
	assert.Equal(t, id, kp.ToUpdate[0].ID)
}

func TestPlanLeavesUnchangedResourcesAlone(t *testing.T) {
	e, store := newRepoEngine()
	id := uuid.NewString()
	store.byID[id] = &models.Resource[models.RepoConfig, models.RepoInfo]{
		ID: id, Name: "api", Config: models.RepoConfig{RepoURL: "https://github.com/acme/api"},
	}
	declared := []Declared{{Kind: models.KindRepo, Name: "api", Config: map[string]any{"repo_url": "https://github.com/acme/api"}}}

	plan, err := e.Plan(context.Background(), declared, nil, false)
	require.NoError(t, err)
	assert.Nil(t, plan.ByKind[models.KindRepo])
}

func TestPlanDeletesUndeclaredOnlyWhenAllowed(t *testing.T) {
	e, store := newRepoEngine()
	id := uuid.NewString()
	store.byID[id] = &models.Resource[models.RepoConfig, models.RepoInfo]{ID: id, Name: "orphan"}

	plan, err := e.Plan(context.Background(), nil, nil, false)
	require.NoError(t, err)
	assert.Nil(t, plan.ByKind[models.KindRepo])

	plan, err = e.Plan(context.Background(), nil, nil, true)
	require.NoError(t, err)
	kp := plan.ByKind[models.KindRepo]
	require.NotNil(t, kp)
	require.Len(t, kp.ToDelete, 1)
	assert.Equal(t, "orphan", kp.ToDelete[0].Name)
}

func TestPlanHonorsMatchTagsFilter(t *testing.T) {
	e, store := newRepoEngine()
	id := uuid.NewString()
	store.byID[id] = &models.Resource[models.RepoConfig, models.RepoInfo]{ID: id, Name: "orphan", Tags: []string{"infra"}}

	declared := []Declared{{Kind: models.KindRepo, Name: "api", Tags: []string{"other"}, Config: map[string]any{"repo_url": "x"}}}
	plan, err := e.Plan(context.Background(), declared, []string{"infra"}, true)
	require.NoError(t, err)
	assert.Nil(t, plan.ByKind[models.KindRepo])
}

func TestApplyExecutesPlannedChanges(t *testing.T) {
	e, store := newRepoEngine()
	id := uuid.NewString()
	store.byID[id] = &models.Resource[models.RepoConfig, models.RepoInfo]{ID: id, Name: "orphan"}

	declared := []Declared{{Kind: models.KindRepo, Name: "api", Tags: []string{"backend"}, Config: map[string]any{"repo_url": "https://github.com/acme/api"}}}
	plan, err := e.Plan(context.Background(), declared, nil, true)
	require.NoError(t, err)

	require.NoError(t, e.Apply(context.Background(), plan))

	_, exists, err := store.FindByName(context.Background(), "api")
	require.NoError(t, err)
	assert.True(t, exists)
	_, exists, err = store.FindByName(context.Background(), "orphan")
	require.NoError(t, err)
	assert.False(t, exists)
}

// forwardRefAdapter wraps a GenericAdapter for Procedure and rejects
// creating/updating a procedure whose config references another procedure
// by name ("depends_on") until that name already exists, simulating the
// forward-reference case ApplyProcedures' fixed-point loop exists to settle.
type forwardRefAdapter struct {
	*GenericAdapter[models.ProcedureConfig, models.ProcedureInfo, models.ProcedurePartialConfig]
}

func (a *forwardRefAdapter) dependsOnMissing(ctx context.Context, raw map[string]any) (bool, error) {
	dep, _ := raw["depends_on"].(string)
	if dep == "" {
		return false, nil
	}
	_, exists, err := a.FindByName(ctx, dep)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (a *forwardRefAdapter) Create(ctx context.Context, name string, tags []string, raw map[string]any) (string, error) {
	missing, err := a.dependsOnMissing(ctx, raw)
	if err != nil {
		return "", err
	}
	if missing {
		return "", fmt.Errorf("depends_on procedure not found yet")
	}
	return a.GenericAdapter.Create(ctx, name, tags, raw)
}

func (a *forwardRefAdapter) Update(ctx context.Context, id string, raw map[string]any) error {
	missing, err := a.dependsOnMissing(ctx, raw)
	if err != nil {
		return err
	}
	if missing {
		return fmt.Errorf("depends_on procedure not found yet")
	}
	return a.GenericAdapter.Update(ctx, id, raw)
}

func TestApplyProceduresConvergesOnForwardReferences(t *testing.T) {
	store := newFakeStore[models.ProcedureConfig, models.ProcedureInfo]()
	adapter := &forwardRefAdapter{NewGenericAdapter[models.ProcedureConfig, models.ProcedureInfo, models.ProcedurePartialConfig](models.KindProcedure, store)}
	e := &Engine{Adapters: map[models.Kind]Adapter{models.KindProcedure: adapter}}

	// "second" depends on "first" by name, but the plan lists "second" first,
	// so a naive single pass would fail to create it.
	kp := &KindPlan{
		ToCreate: []PlannedCreate{
			{Name: "second", Config: map[string]any{"depends_on": "first"}},
			{Name: "first", Config: map[string]any{}},
		},
	}

	require.NoError(t, e.ApplyProcedures(context.Background(), adapter, kp))

	_, exists, err := store.FindByName(context.Background(), "first")
	require.NoError(t, err)
	assert.True(t, exists)
	_, exists, err = store.FindByName(context.Background(), "second")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestApplyProceduresFailsWhenDependencyNeverResolves(t *testing.T) {
	store := newFakeStore[models.ProcedureConfig, models.ProcedureInfo]()
	adapter := &forwardRefAdapter{NewGenericAdapter[models.ProcedureConfig, models.ProcedureInfo, models.ProcedurePartialConfig](models.KindProcedure, store)}
	e := &Engine{Adapters: map[models.Kind]Adapter{models.KindProcedure: adapter}}

	kp := &KindPlan{
		ToCreate: []PlannedCreate{
			{Name: "orphan", Config: map[string]any{"depends_on": "never-declared"}},
		},
	}

	err := e.ApplyProcedures(context.Background(), adapter, kp)
	assert.Error(t, err)
}

// fakeSyncStore backs SyncStore for the Engine.Refresh/Run integration tests.
type fakeSyncStore struct {
	sync *models.ResourceSync
}

func (s *fakeSyncStore) Get(_ context.Context, id string) (*models.ResourceSync, error) {
	cp := *s.sync
	return &cp, nil
}

func (s *fakeSyncStore) Upsert(_ context.Context, r *models.ResourceSync) error {
	cp := *r
	s.sync = &cp
	return nil
}

func newTestServer(t *testing.T, path, body string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/acme/api/main/"+path, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestEngineRefreshComputesPendingWithoutApplying(t *testing.T) {
	srv := newTestServer(t, "resources.toml", sampleTOML)
	fetcher := &RawFetcher{HTTP: srv.Client()}
	fetcher.baseOverride = srv.URL

	repoStore := newFakeStore[models.RepoConfig, models.RepoInfo]()
	adapters := map[models.Kind]Adapter{models.KindRepo: repoAdapter(repoStore)}
	syncID := uuid.NewString()
	syncs := &fakeSyncStore{sync: &models.ResourceSync{
		ID:   syncID,
		Name: "main-sync",
		Config: models.ResourceSyncConfig{
			RepoURL:      "https://github.com/acme/api",
			Branch:       "main",
			ResourcePath: []string{"resources.toml"},
		},
	}}

	e := New(adapters, fetcher, syncs, func() int64 { return 42 })
	data, err := e.Refresh(context.Background(), syncID)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, 1, data.ByKind[models.KindRepo].ToCreate)

	_, exists, err := repoStore.FindByName(context.Background(), "api")
	require.NoError(t, err)
	assert.False(t, exists, "refresh must not apply changes")
	assert.NotNil(t, syncs.sync.Info.Pending)
}

func TestEngineRunAppliesAndRecordsLastSync(t *testing.T) {
	srv := newTestServer(t, "resources.toml", sampleTOML)
	fetcher := &RawFetcher{HTTP: srv.Client()}
	fetcher.baseOverride = srv.URL

	repoStore := newFakeStore[models.RepoConfig, models.RepoInfo]()
	adapters := map[models.Kind]Adapter{models.KindRepo: repoAdapter(repoStore)}
	syncID := uuid.NewString()
	syncs := &fakeSyncStore{sync: &models.ResourceSync{
		ID:   syncID,
		Name: "main-sync",
		Config: models.ResourceSyncConfig{
			RepoURL:      "https://github.com/acme/api",
			Branch:       "main",
			ResourcePath: []string{"resources.toml"},
		},
	}}

	e := New(adapters, fetcher, syncs, func() int64 { return 42 })
	data, err := e.Run(context.Background(), syncID)
	require.NoError(t, err)
	require.NotNil(t, data)

	_, exists, err := repoStore.FindByName(context.Background(), "api")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Nil(t, syncs.sync.Info.Pending)
	assert.EqualValues(t, 42, syncs.sync.Info.LastSyncTs)
	assert.NotEmpty(t, syncs.sync.Info.LastSyncHash)
}
