package update

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodo-run/komodo-core/pkg/models"
)

type fakeStore struct {
	mu      sync.Mutex
	updates map[string]*models.Update
}

func newFakeStore() *fakeStore {
	return &fakeStore{updates: make(map[string]*models.Update)}
}

func (s *fakeStore) InsertUpdate(_ context.Context, u *models.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[u.ID] = u
	return nil
}

func (s *fakeStore) SaveUpdate(_ context.Context, u *models.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[u.ID] = u
	return nil
}

func (s *fakeStore) GetUpdate(_ context.Context, id string) (*models.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates[id], nil
}

func (s *fakeStore) InProgressUpdates(_ context.Context) ([]models.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Update
	for _, u := range s.updates {
		if u.Status == models.UpdateStatusInProgress {
			out = append(out, *u)
		}
	}
	return out, nil
}

func fixedClock() int64 { return 1000 }

func TestJournalInitPersistsInProgress(t *testing.T) {
	store := newFakeStore()
	j := New(store, nil, fixedClock)
	target := models.NewTarget(models.KindDeployment, "d1")

	u, err := j.Init(context.Background(), target, models.OperationDeploy, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UpdateStatusInProgress, u.Status)
	assert.Equal(t, int64(1000), u.StartTs)

	stored, err := store.GetUpdate(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Same(t, u, stored)
}

func TestJournalAppendLogAndFinalizeSuccess(t *testing.T) {
	store := newFakeStore()
	j := New(store, nil, fixedClock)
	target := models.NewTarget(models.KindDeployment, "d1")
	u, err := j.Init(context.Background(), target, models.OperationDeploy, "u1")
	require.NoError(t, err)

	require.NoError(t, j.AppendLog(context.Background(), u, models.Log{Stage: "pull", Success: true}))
	require.NoError(t, j.AppendLog(context.Background(), u, models.Log{Stage: "start", Success: true}))
	require.NoError(t, j.Finalize(context.Background(), u, false))

	assert.Equal(t, models.UpdateStatusComplete, u.Status)
	assert.True(t, u.Success)
	assert.Len(t, u.Logs, 2)
}

func TestJournalFinalizeFailsIfAnyLogFailed(t *testing.T) {
	store := newFakeStore()
	j := New(store, nil, fixedClock)
	target := models.NewTarget(models.KindBuild, "b1")
	u, err := j.Init(context.Background(), target, models.OperationRunBuild, "u1")
	require.NoError(t, err)

	require.NoError(t, j.AppendLog(context.Background(), u, models.Log{Stage: "clone", Success: true}))
	require.NoError(t, j.AppendLog(context.Background(), u, models.Log{Stage: "build", Success: false}))
	require.NoError(t, j.Finalize(context.Background(), u, false))

	assert.False(t, u.Success)
}

func TestJournalFinalizeForceFailureOverridesLogs(t *testing.T) {
	store := newFakeStore()
	j := New(store, nil, fixedClock)
	target := models.NewTarget(models.KindBuild, "b1")
	u, err := j.Init(context.Background(), target, models.OperationRunBuild, "u1")
	require.NoError(t, err)

	require.NoError(t, j.AppendLog(context.Background(), u, models.Log{Stage: "clone", Success: true}))
	require.NoError(t, j.Finalize(context.Background(), u, true))

	assert.False(t, u.Success)
}

func TestJournalBroadcastsOnEveryWrite(t *testing.T) {
	store := newFakeStore()
	b := NewBroadcaster()
	j := New(store, b, fixedClock)
	ch := b.Subscribe("sub1", 8)
	defer b.Unsubscribe("sub1")

	target := models.NewTarget(models.KindDeployment, "d1")
	u, err := j.Init(context.Background(), target, models.OperationDeploy, "u1")
	require.NoError(t, err)
	require.NoError(t, j.AppendLog(context.Background(), u, models.Log{Stage: "x", Success: true}))
	require.NoError(t, j.Finalize(context.Background(), u, false))

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, <-ch)
	}
	assert.Equal(t, []string{u.ID, u.ID, u.ID}, ids)
}

func TestBroadcasterDropsWhenSubscriberBufferFull(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe("sub1", 1)
	b.Publish("a")
	b.Publish("b")
	assert.Equal(t, "a", <-ch)
}

func TestBroadcasterUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe("sub1", 1)
	b.Unsubscribe("sub1")
	_, ok := <-ch
	assert.False(t, ok)
}

func TestRecoverIncompleteFinalizesStaleUpdates(t *testing.T) {
	store := newFakeStore()
	j := New(store, nil, fixedClock)
	target := models.NewTarget(models.KindDeployment, "d1")
	u, err := j.Init(context.Background(), target, models.OperationDeploy, "u1")
	require.NoError(t, err)
	require.NoError(t, j.AppendLog(context.Background(), u, models.Log{Stage: "pull", Success: true}))

	n, err := RecoverIncomplete(context.Background(), store, fixedClock)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := store.GetUpdate(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UpdateStatusComplete, stored.Status)
	assert.False(t, stored.Success)
	require.Len(t, stored.Logs, 2)
	assert.Equal(t, "shutdown", stored.Logs[1].Stage)
	assert.False(t, stored.Logs[1].Success)
	assert.Equal(t, int64(1000), stored.EndTs)
}

func TestRecoverIncompleteNoopWhenNothingStale(t *testing.T) {
	store := newFakeStore()
	j := New(store, nil, fixedClock)
	target := models.NewTarget(models.KindDeployment, "d1")
	u, err := j.Init(context.Background(), target, models.OperationDeploy, "u1")
	require.NoError(t, err)
	require.NoError(t, j.Finalize(context.Background(), u, false))

	n, err := RecoverIncomplete(context.Background(), store, fixedClock)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
