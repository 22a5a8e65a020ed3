package execution

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodo-run/komodo-core/pkg/actionstate"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/permission"
	"github.com/komodo-run/komodo-core/pkg/update"
)

type fakeStore struct {
	mu      sync.Mutex
	updates map[string]*models.Update
}

func newFakeStore() *fakeStore { return &fakeStore{updates: make(map[string]*models.Update)} }

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

func fixedClock() int64 { return 42 }

// fixedBase gives every target the same base permission, so newTestEngine
// can grant a non-admin user exactly the level a test asks for.
type fixedBase models.Level

func (b fixedBase) BasePermission(context.Context, models.ResourceTarget) (models.Level, error) {
	return models.Level(b), nil
}

func newTestEngine(allow models.Level) *Engine {
	perms := permission.New(fixedBase(allow), nil, nil, false)
	journal := update.New(newFakeStore(), nil, fixedClock)
	return New(perms, actionstate.NewCache(), journal)
}

func TestExecuteForbiddenWithoutExecuteLevel(t *testing.T) {
	e := newTestEngine(models.LevelNone)
	e.Permissions.TransparentMode = false
	e.Register(TypeStartContainer, func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		return nil
	})

	user := &models.User{ID: "u1"}
	target := models.NewTarget(models.KindDeployment, "d1")
	_, err := e.Execute(context.Background(), ExecuteRequest{Type: TypeStartContainer, Target: target}, user)
	require.Error(t, err)
	var forbidden *ErrForbidden
	assert.ErrorAs(t, err, &forbidden)
}

func TestExecuteSucceedsAndFinalizesUpdate(t *testing.T) {
	e := newTestEngine(models.LevelExecute)
	e.Register(TypeStartContainer, func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		return journal.AppendLog(ctx, u, models.Log{Stage: "start", Success: true})
	})

	user := &models.User{ID: "u1"}
	target := models.NewTarget(models.KindDeployment, "d1")
	u, err := e.Execute(context.Background(), ExecuteRequest{Type: TypeStartContainer, Target: target}, user)
	require.NoError(t, err)
	assert.Equal(t, models.UpdateStatusComplete, u.Status)
	assert.True(t, u.Success)
	assert.Equal(t, models.OperationStartContainer, u.Operation)
}

func TestExecuteHandlerErrorFinalizesAsFailure(t *testing.T) {
	e := newTestEngine(models.LevelExecute)
	e.Register(TypeStartContainer, func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		return assert.AnError
	})

	user := &models.User{ID: "u1"}
	target := models.NewTarget(models.KindDeployment, "d1")
	u, err := e.Execute(context.Background(), ExecuteRequest{Type: TypeStartContainer, Target: target}, user)
	require.NoError(t, err)
	assert.False(t, u.Success)
	assert.Equal(t, models.UpdateStatusComplete, u.Status)
}

func TestExecuteBusyRejectsSecondConcurrentCall(t *testing.T) {
	e := newTestEngine(models.LevelExecute)
	release := make(chan struct{})
	e.Register(TypeDeploy, func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		<-release
		return nil
	})

	user := &models.User{ID: "u1"}
	target := models.NewTarget(models.KindDeployment, "d1")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = e.Execute(context.Background(), ExecuteRequest{Type: TypeDeploy, Target: target}, user)
	}()

	// give the first call a moment to acquire the guard
	for i := 0; i < 1000 && !e.Actions.Busy(target); i++ {
	}
	_, err := e.Execute(context.Background(), ExecuteRequest{Type: TypeDeploy, Target: target}, user)
	assert.Error(t, err)

	close(release)
	wg.Wait()
}

func TestBumpVersionIncrementsPatch(t *testing.T) {
	next, err := BumpVersion("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.4", next)
}

func TestBumpVersionDefaultsOnInvalidCurrent(t *testing.T) {
	next, err := BumpVersion("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.1", next)
}

func TestBuildImageTagUsesLatestForZeroVersion(t *testing.T) {
	assert.Equal(t, "myimage:latest", BuildImageTag("myimage", ""))
	assert.Equal(t, "myimage:latest", BuildImageTag("myimage", "0.0.0"))
	assert.Equal(t, "myimage:1.0.0", BuildImageTag("myimage", "1.0.0"))
}

func TestCancelBuildConflictWhenInProgress(t *testing.T) {
	b := NewBroadcaster()
	h := CancelBuildHandler(b, func(buildID string) bool { return true })

	store := newFakeStore()
	j := update.New(store, nil, fixedClock)
	target := models.NewTarget(models.KindBuild, "b1")
	u, err := j.Init(context.Background(), target, models.OperationCancelBuild, "u1")
	require.NoError(t, err)

	err = h(context.Background(), ExecuteRequest{Type: TypeCancelBuild, Target: target}, j, u)
	require.Error(t, err)
	var conflict *ErrCancelConflict
	assert.ErrorAs(t, err, &conflict)
}

func TestCancelBuildPublishesToBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	ch, unsubscribe := b.Subscribe("b1")
	defer unsubscribe()

	h := CancelBuildHandler(b, func(string) bool { return false })
	store := newFakeStore()
	j := update.New(store, nil, fixedClock)
	target := models.NewTarget(models.KindBuild, "b1")
	u, err := j.Init(context.Background(), target, models.OperationCancelBuild, "u1")
	require.NoError(t, err)

	require.NoError(t, h(context.Background(), ExecuteRequest{Type: TypeCancelBuild, Target: target}, j, u))

	select {
	case <-ch:
	default:
		t.Fatal("expected cancel channel to be closed")
	}
}

type fakeProcedureLookup struct {
	stages map[string][]Stage
}

func (f *fakeProcedureLookup) Stages(_ context.Context, procedureID string) ([]Stage, error) {
	return f.stages[procedureID], nil
}

// fakeUserLookup resolves every operator id to an admin user, so a child
// execution dispatched through engine.Execute clears its own permission
// check regardless of the base level newTestEngine configures.
type fakeUserLookup struct{}

func (fakeUserLookup) GetUser(_ context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, Admin: true}, nil
}

func TestRunProcedureRunsStagesSequentiallyAndFailsFast(t *testing.T) {
	e := newTestEngine(models.LevelExecute)
	var order []string
	var mu sync.Mutex
	e.Register(TypeStartContainer, func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		mu.Lock()
		order = append(order, "stage1:"+req.Target.ID)
		mu.Unlock()
		return nil
	})
	e.Register(TypeStopContainer, func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		return assert.AnError
	})

	lookup := &fakeProcedureLookup{stages: map[string][]Stage{
		"p1": {
			{Executions: []ExecuteRequest{
				{Type: TypeStartContainer, Target: models.NewTarget(models.KindDeployment, "d1")},
				{Type: TypeStartContainer, Target: models.NewTarget(models.KindDeployment, "d2")},
			}},
			{Executions: []ExecuteRequest{
				{Type: TypeStopContainer, Target: models.NewTarget(models.KindDeployment, "d3")},
			}},
		},
	}}
	e.Register(TypeRunProcedure, RunProcedureHandler(lookup, e, fakeUserLookup{}))

	store := newFakeStore()
	j := update.New(store, nil, fixedClock)
	target := models.NewTarget(models.KindProcedure, "p1")
	u, err := j.Init(context.Background(), target, models.OperationRunProcedure, "u1")
	require.NoError(t, err)

	err = e.Handlers[TypeRunProcedure](context.Background(), ExecuteRequest{Type: TypeRunProcedure, Target: target}, j, u)
	require.Error(t, err)
	assert.Len(t, order, 2)
}

func TestRunProcedureRejectsSelfReference(t *testing.T) {
	lookup := &fakeProcedureLookup{stages: map[string][]Stage{
		"p1": {{Executions: []ExecuteRequest{{Type: TypeRunProcedure, Target: models.NewTarget(models.KindProcedure, "p1")}}}},
	}}

	// Share one store with the engine's own journal so the nested child's
	// Update — created by the recursive engine.Execute call, not by this
	// test — can be inspected afterward.
	store := newFakeStore()
	perms := permission.New(nil, nil, nil, false)
	engineJournal := update.New(store, nil, fixedClock)
	e := New(perms, actionstate.NewCache(), engineJournal)
	e.Register(TypeRunProcedure, RunProcedureHandler(lookup, e, fakeUserLookup{}))

	j := update.New(store, nil, fixedClock)
	target := models.NewTarget(models.KindProcedure, "p1")
	u, err := j.Init(context.Background(), target, models.OperationRunProcedure, "u1")
	require.NoError(t, err)

	err = e.Handlers[TypeRunProcedure](context.Background(), ExecuteRequest{Type: TypeRunProcedure, Target: target}, j, u)
	require.Error(t, err)

	// The rejection happens inside the nested child's own Update, dispatched
	// through engine.Execute, not as an error string propagated from the
	// top-level handler call.
	var nested *models.Update
	for _, got := range store.updates {
		if got.ID != u.ID {
			nested = got
		}
	}
	require.NotNil(t, nested, "expected a nested child Update for the self-referencing RunProcedure")
	assert.False(t, nested.Success)
	require.NotEmpty(t, nested.Logs)
	assert.Contains(t, nested.Logs[len(nested.Logs)-1].Stderr, "self-referential")
}
