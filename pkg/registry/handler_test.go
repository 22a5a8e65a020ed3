package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodo-run/komodo-core/pkg/actionstate"
	"github.com/komodo-run/komodo-core/pkg/models"
)

type testConfig struct {
	Image string
}

type testPartialConfig struct {
	Image *string
}

type testInfo struct {
	State string
}

type fakeStore struct {
	resources map[string]*models.Resource[testConfig, testInfo]
}

func (s *fakeStore) Get(_ context.Context, id string) (*models.Resource[testConfig, testInfo], error) {
	return s.resources[id], nil
}

func TestHandlerToListItemUsesProjector(t *testing.T) {
	store := &fakeStore{resources: map[string]*models.Resource[testConfig, testInfo]{
		"d1": {ID: "d1", Name: "api", Tags: []string{"prod"}, BasePermission: models.LevelRead, Info: testInfo{State: "running"}},
	}}
	project := func(_ context.Context, r *models.Resource[testConfig, testInfo]) (any, error) {
		return r.Info.State, nil
	}
	h := NewHandler[testConfig, testInfo, testPartialConfig](models.KindDeployment, store, nil, nil, Validator[testPartialConfig]{}, project, LifecycleHooks{})

	item, err := h.ToListItem(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", item.ID)
	assert.Equal(t, models.KindDeployment, item.Kind)
	assert.Equal(t, "running", item.Info)
}

func TestHandlerBusyChecksWatchedFlags(t *testing.T) {
	actions := actionstate.NewCache()
	store := &fakeStore{}
	h := NewHandler[testConfig, testInfo, testPartialConfig](
		models.KindDeployment, store, actions,
		[]actionstate.Flag{actionstate.FlagDeploying, actionstate.FlagStarting},
		Validator[testPartialConfig]{}, nil, LifecycleHooks{},
	)

	assert.False(t, h.Busy("d1"))

	handle, err := actions.Guard(models.NewTarget(models.KindDeployment, "d1"), actionstate.FlagStarting)
	require.NoError(t, err)
	defer handle.Release()

	assert.True(t, h.Busy("d1"))
}

func TestHandlerMergeAndDiff(t *testing.T) {
	store := &fakeStore{}
	h := NewHandler[testConfig, testInfo, testPartialConfig](models.KindDeployment, store, nil, nil, Validator[testPartialConfig]{}, nil, LifecycleHooks{})

	current := testConfig{Image: "nginx:1"}
	image := "nginx:2"
	partial := testPartialConfig{Image: &image}

	diff := h.Diff(current, partial)
	require.Len(t, diff, 1)
	assert.Equal(t, "nginx:1", diff["Image"].From)
	assert.Equal(t, "nginx:2", diff["Image"].To)

	merged, err := h.Merge(current, partial)
	require.NoError(t, err)
	assert.Equal(t, "nginx:2", merged.Image)
}

func TestHandlerValidatorHooksRunWhenSet(t *testing.T) {
	store := &fakeStore{}
	called := false
	validator := Validator[testPartialConfig]{
		ValidatePartial: func(p testPartialConfig) testPartialConfig {
			called = true
			return p
		},
	}
	h := NewHandler[testConfig, testInfo, testPartialConfig](models.KindDeployment, store, nil, nil, validator, nil, LifecycleHooks{})

	h.NormalizePartial(testPartialConfig{})
	assert.True(t, called)
}

func TestHandlerLifecycleHooksDefaultNoop(t *testing.T) {
	store := &fakeStore{}
	h := NewHandler[testConfig, testInfo, testPartialConfig](models.KindDeployment, store, nil, nil, Validator[testPartialConfig]{}, nil, LifecycleHooks{})
	assert.NoError(t, h.PostCreate(context.Background(), "d1"))
	assert.NoError(t, h.PostUpdate(context.Background(), "d1"))
	assert.NoError(t, h.PreDelete(context.Background(), "d1"))
	assert.NoError(t, h.PostDelete(context.Background(), "d1"))
}

func TestRegistryGetAndAll(t *testing.T) {
	store := &fakeStore{}
	h := NewHandler[testConfig, testInfo, testPartialConfig](models.KindDeployment, store, nil, nil, Validator[testPartialConfig]{}, nil, LifecycleHooks{})

	r := New()
	r.Register(h)

	got, err := r.Get(models.KindDeployment)
	require.NoError(t, err)
	assert.Equal(t, models.KindDeployment, got.Kind())

	_, err = r.Get(models.KindBuild)
	assert.Error(t, err)

	assert.Len(t, r.All(), 1)
}
