package alert

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodo-run/komodo-core/pkg/models"
)

type fakeStore struct {
	mu         sync.Mutex
	inserted   []models.Alert
	saved      []models.Alert
	unresolved map[string]*models.Alert
}

func newFakeStore() *fakeStore {
	return &fakeStore{unresolved: make(map[string]*models.Alert)}
}

func (s *fakeStore) key(target models.ResourceTarget, variant models.AlertVariant) string {
	return target.String() + ":" + string(variant)
}

func (s *fakeStore) InsertAlert(ctx context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, *a)
	cp := *a
	s.unresolved[s.key(a.Target, a.Variant)] = &cp
	return nil
}

func (s *fakeStore) SaveAlert(ctx context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, *a)
	if a.Resolved {
		delete(s.unresolved, s.key(a.Target, a.Variant))
	}
	return nil
}

func (s *fakeStore) FindUnresolvedAlert(ctx context.Context, target models.ResourceTarget, variant models.AlertVariant) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unresolved[s.key(target, variant)], nil
}

type fakeAlerterLookup struct {
	alerters []models.Alerter
}

func (f fakeAlerterLookup) EnabledAlerters(ctx context.Context) ([]models.Alerter, error) {
	return f.alerters, nil
}

type recordingEndpoint struct {
	mu    sync.Mutex
	sent  []models.Alert
	err   error
}

func (e *recordingEndpoint) Send(ctx context.Context, cfg models.AlerterConfig, alert models.Alert) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, alert)
	return e.err
}

func (e *recordingEndpoint) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sent)
}

func testAlerter(kind models.AlerterEndpointKind, variants ...models.AlertVariant) models.Alerter {
	return models.Alerter{
		ID:   "a1",
		Name: "alerter-1",
		Config: models.AlerterConfig{
			Kind:            kind,
			Enabled:         true,
			ResourceTargets: models.ResourceTargetFilter{AllowAll: true},
			AlertTypes:      variants,
		},
	}
}

func TestEmitInsertsNewAlertAndDispatchesToAcceptingAlerters(t *testing.T) {
	store := newFakeStore()
	endpoint := &recordingEndpoint{}
	p := NewPipeline(store, fakeAlerterLookup{alerters: []models.Alerter{
		testAlerter(models.AlerterSlack, models.AlertServerUnreachable),
	}})
	p.Endpoints[models.AlerterSlack] = endpoint

	target := models.NewTarget(models.KindServer, "s1")
	p.Emit(context.Background(), models.Alert{Target: target, Variant: models.AlertServerUnreachable, Level: models.SeverityCritical, Ts: 1})

	require.Len(t, store.inserted, 1)
	assert.Equal(t, 1, endpoint.count())
}

func TestEmitSkipsAlertersThatDoNotAcceptVariant(t *testing.T) {
	store := newFakeStore()
	endpoint := &recordingEndpoint{}
	p := NewPipeline(store, fakeAlerterLookup{alerters: []models.Alerter{
		testAlerter(models.AlerterSlack, models.AlertBuildFailed), // different variant
	}})
	p.Endpoints[models.AlerterSlack] = endpoint

	target := models.NewTarget(models.KindServer, "s1")
	p.Emit(context.Background(), models.Alert{Target: target, Variant: models.AlertServerUnreachable, Level: models.SeverityCritical, Ts: 1})

	assert.Equal(t, 0, endpoint.count())
}

func TestEmitResolvesMatchingUnresolvedAlert(t *testing.T) {
	store := newFakeStore()
	endpoint := &recordingEndpoint{}
	p := NewPipeline(store, fakeAlerterLookup{alerters: []models.Alerter{
		testAlerter(models.AlerterSlack, models.AlertServerUnreachable),
	}})
	p.Endpoints[models.AlerterSlack] = endpoint

	target := models.NewTarget(models.KindServer, "s1")
	p.Emit(context.Background(), models.Alert{Target: target, Variant: models.AlertServerUnreachable, Level: models.SeverityCritical, Ts: 1})
	p.Emit(context.Background(), models.Alert{Target: target, Variant: models.AlertServerUnreachable, Level: models.SeverityOk, Resolved: true, Ts: 2})

	require.Len(t, store.saved, 1)
	assert.True(t, store.saved[0].Resolved)
	assert.Equal(t, int64(2), store.saved[0].ResolvedTs)
}

func TestEmitWithNoMatchingUnresolvedAlertInsertsResolutionAsNew(t *testing.T) {
	store := newFakeStore()
	p := NewPipeline(store, fakeAlerterLookup{})

	target := models.NewTarget(models.KindServer, "s1")
	p.Emit(context.Background(), models.Alert{Target: target, Variant: models.AlertServerUnreachable, Level: models.SeverityOk, Ts: 1})

	assert.Len(t, store.inserted, 1)
	assert.Empty(t, store.saved)
}

func TestEmitDoesNotBlockOnOneFailingEndpoint(t *testing.T) {
	store := newFakeStore()
	failing := &recordingEndpoint{err: assert.AnError}
	succeeding := &recordingEndpoint{}
	p := NewPipeline(store, fakeAlerterLookup{alerters: []models.Alerter{
		testAlerter(models.AlerterSlack, models.AlertServerUnreachable),
		{ID: "a2", Name: "alerter-2", Config: models.AlerterConfig{
			Kind: models.AlerterDiscord, Enabled: true,
			ResourceTargets: models.ResourceTargetFilter{AllowAll: true},
			AlertTypes:      []models.AlertVariant{models.AlertServerUnreachable},
		}},
	}})
	p.Endpoints[models.AlerterSlack] = failing
	p.Endpoints[models.AlerterDiscord] = succeeding

	target := models.NewTarget(models.KindServer, "s1")
	p.Emit(context.Background(), models.Alert{Target: target, Variant: models.AlertServerUnreachable, Level: models.SeverityCritical, Ts: 1})

	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, succeeding.count())
}
