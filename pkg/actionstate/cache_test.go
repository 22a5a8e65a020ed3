package actionstate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodo-run/komodo-core/pkg/models"
)

func TestBusyFalseByDefault(t *testing.T) {
	c := NewCache()
	target := models.NewTarget(models.KindDeployment, "d1")
	assert.False(t, c.Busy(target))
}

func TestGuardSetsAndReleaseClears(t *testing.T) {
	c := NewCache()
	target := models.NewTarget(models.KindDeployment, "d1")

	handle, err := c.Guard(target, FlagDeploying)
	require.NoError(t, err)
	assert.True(t, c.Busy(target))
	assert.True(t, c.Flags(target).Deploying)

	handle.Release()
	assert.False(t, c.Busy(target))
}

func TestGuardFailsWhenAlreadySet(t *testing.T) {
	c := NewCache()
	target := models.NewTarget(models.KindBuild, "b1")

	handle, err := c.Guard(target, FlagBuilding)
	require.NoError(t, err)
	defer handle.Release()

	_, err = c.Guard(target, FlagBuilding)
	require.Error(t, err)
	var busyErr *ErrBusy
	require.ErrorAs(t, err, &busyErr)
}

func TestGuardIndependentFlagsOnSameTarget(t *testing.T) {
	c := NewCache()
	target := models.NewTarget(models.KindRepo, "r1")

	cloning, err := c.Guard(target, FlagCloning)
	require.NoError(t, err)
	defer cloning.Release()

	pulling, err := c.Guard(target, FlagPulling)
	require.NoError(t, err)
	defer pulling.Release()

	assert.True(t, c.Busy(target))
}

func TestGuardsNeverDeadlockAcrossDistinctIds(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			target := models.NewTarget(models.KindServer, string(rune('a'+i%26)))
			handle, err := c.Guard(target, FlagUpdating)
			if err == nil {
				handle.Release()
			}
		}()
	}
	wg.Wait()
}

func TestReleaseIsIdempotent(t *testing.T) {
	c := NewCache()
	target := models.NewTarget(models.KindStack, "s1")
	handle, err := c.Guard(target, FlagDeploying)
	require.NoError(t, err)

	handle.Release()
	assert.NotPanics(t, func() { handle.Release() })
	assert.False(t, c.Busy(target))
}
