package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelMax(t *testing.T) {
	assert.Equal(t, LevelWrite, Max(LevelWrite, LevelRead))
	assert.Equal(t, LevelExecute, Max(LevelNone, LevelExecute))
	assert.Equal(t, LevelNone, Max(LevelNone, LevelNone))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "Read", LevelRead.String())
	assert.Equal(t, "Unknown", Level(99).String())
}

func TestUserTargetHelpers(t *testing.T) {
	u := NewUserTarget("u1")
	g := NewGroupTarget("g1")
	assert.True(t, u.IsUser())
	assert.False(t, u.IsGroup())
	assert.True(t, g.IsGroup())
	assert.False(t, g.IsUser())
}

func TestUpdateAllLogsSuccessful(t *testing.T) {
	empty := &Update{}
	assert.True(t, empty.AllLogsSuccessful())

	allGood := &Update{Logs: []Log{{Success: true}, {Success: true}}}
	assert.True(t, allGood.AllLogsSuccessful())

	oneBad := &Update{Logs: []Log{{Success: true}, {Success: false}}}
	assert.False(t, oneBad.AllLogsSuccessful())
}

func TestResourceTargetFilterAccepts(t *testing.T) {
	target := NewTarget(KindDeployment, "d1")
	denied := NewTarget(KindDeployment, "d2")

	f := ResourceTargetFilter{AllowAll: true, Deny: []ResourceTarget{denied}}
	assert.True(t, f.Accepts(target))
	assert.False(t, f.Accepts(denied))

	narrow := ResourceTargetFilter{Allow: []ResourceTarget{target}}
	assert.True(t, narrow.Accepts(target))
	assert.False(t, narrow.Accepts(denied))
}

func TestAlerterConfigAccepts(t *testing.T) {
	target := NewTarget(KindServer, "s1")
	cfg := AlerterConfig{
		Enabled:         true,
		AlertTypes:      []AlertVariant{AlertServerCPU},
		ResourceTargets: ResourceTargetFilter{AllowAll: true},
	}
	assert.True(t, cfg.Accepts(target, AlertServerCPU))
	assert.False(t, cfg.Accepts(target, AlertServerMem))

	cfg.Enabled = false
	assert.False(t, cfg.Accepts(target, AlertServerCPU))
}

func TestIsSystemUser(t *testing.T) {
	assert.True(t, IsSystemUser(AutoRedeployUserID))
	assert.True(t, IsSystemUser(GithubUserID))
	assert.False(t, IsSystemUser("some_real_user_id"))
}

func TestResourceTargetString(t *testing.T) {
	target := NewTarget(KindBuild, "b1")
	assert.Equal(t, "Build(b1)", target.String())
}
