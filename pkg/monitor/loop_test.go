package monitor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/periphery"
)

type fakeServerSource struct{ servers []models.Server }

func (f fakeServerSource) EnabledServers(ctx context.Context) ([]models.Server, error) {
	return f.servers, nil
}

type fakeDeploymentSource struct{ byServer map[string][]models.Deployment }

func (f fakeDeploymentSource) DeploymentsOnServer(ctx context.Context, serverID string) ([]models.Deployment, error) {
	return f.byServer[serverID], nil
}

type fakeStackSource struct{ byServer map[string][]models.Stack }

func (f fakeStackSource) StacksOnServer(ctx context.Context, serverID string) ([]models.Stack, error) {
	return f.byServer[serverID], nil
}

type fakeResolver struct {
	clients map[string]periphery.Client
	err     error
}

func (f fakeResolver) ClientFor(server models.Server) (periphery.Client, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.clients[server.ID], nil
}

type recordingSink struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func (s *recordingSink) Emit(ctx context.Context, a models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
}

func (s *recordingSink) variants() []models.AlertVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AlertVariant, len(s.alerts))
	for i, a := range s.alerts {
		out[i] = a.Variant
	}
	return out
}

func newTestScheduler(t *testing.T, server models.Server, client periphery.Client, deployments []models.Deployment, stacks []models.Stack) (*Scheduler, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	s := NewScheduler(
		fakeServerSource{servers: []models.Server{server}},
		fakeDeploymentSource{byServer: map[string][]models.Deployment{server.ID: deployments}},
		fakeStackSource{byServer: map[string][]models.Stack{server.ID: stacks}},
		fakeResolver{clients: map[string]periphery.Client{server.ID: client}},
	)
	s.Alerts = sink
	s.Now = func() int64 { return 1000 }
	return s, sink
}

func testServer(id string, enabled bool) models.Server {
	return models.Server{ID: id, Name: "srv-" + id, Config: models.ServerConfig{Enabled: enabled, TimeoutSeconds: 1}}
}

func TestTickDisabledServerSetsDisabledState(t *testing.T) {
	server := testServer("s1", false)
	s, _ := newTestScheduler(t, server, &periphery.Fake{}, nil, nil)

	s.Tick(context.Background())

	status := s.ServerCache.Get("s1").Curr
	assert.Equal(t, models.ServerStateDisabled, status.State)
}

func TestTickReachableServerSetsOkState(t *testing.T) {
	server := testServer("s1", true)
	client := &periphery.Fake{Version: "1.2.3"}
	s, _ := newTestScheduler(t, server, client, nil, nil)

	s.Tick(context.Background())

	status := s.ServerCache.Get("s1").Curr
	assert.Equal(t, models.ServerStateOk, status.State)
	assert.Equal(t, "1.2.3", status.Version)
}

func TestServerTransitionEmitsAlert(t *testing.T) {
	server := testServer("s1", true)
	client := &periphery.Fake{Err: assert.AnError}
	s, sink := newTestScheduler(t, server, client, nil, nil)

	s.Tick(context.Background()) // first tick: NotOk, no prior observation so no alert
	require.Empty(t, sink.variants())

	client.Err = nil
	client.Version = "1.0.0"
	s.Tick(context.Background()) // NotOk -> Ok transition

	assert.Contains(t, sink.variants(), models.AlertServerUnreachable)
}

func TestDeploymentUpdateAvailableEmitsAlertOnce(t *testing.T) {
	server := testServer("s1", true)
	client := &periphery.Fake{
		Version: "1.0.0",
		Containers: []periphery.Container{
			{Name: "web", Image: "app:1", ImageID: "old", State: "running"},
		},
		Images: []periphery.Image{
			{Name: "app:1", ID: "new"},
		},
	}
	deployment := models.Deployment{
		ID:   "d1",
		Name: "web",
		Config: models.DeploymentConfig{
			ServerID: "s1", SendAlerts: true,
		},
	}
	s, sink := newTestScheduler(t, server, client, []models.Deployment{deployment}, nil)

	s.Tick(context.Background())
	s.Tick(context.Background()) // second tick: still available, must not double-emit

	count := 0
	for _, v := range sink.variants() {
		if v == models.AlertDeploymentImageUpdateAvailable {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDeploymentAutoUpdateTriggersRedeployOnce(t *testing.T) {
	server := testServer("s1", true)
	client := &periphery.Fake{
		Version: "1.0.0",
		Containers: []periphery.Container{
			{Name: "web", Image: "app:1", ImageID: "old", State: "running"},
		},
		Images: []periphery.Image{
			{Name: "app:1", ID: "new"},
		},
	}
	deployment := models.Deployment{
		ID:   "d1",
		Name: "web",
		Config: models.DeploymentConfig{
			ServerID: "s1", AutoUpdate: true,
		},
	}
	triggered := 0
	s, _ := newTestScheduler(t, server, client, []models.Deployment{deployment}, nil)
	s.AutoUpdate = autoUpdateFunc{onDeployment: func(id string) { triggered++ }}

	s.Tick(context.Background())
	s.Tick(context.Background())

	assert.Equal(t, 1, triggered)
}

type autoUpdateFunc struct {
	onDeployment func(id string)
	onStack      func(id string)
}

func (f autoUpdateFunc) TriggerDeploymentRedeploy(ctx context.Context, id string) {
	if f.onDeployment != nil {
		f.onDeployment(id)
	}
}

func (f autoUpdateFunc) TriggerStackRedeploy(ctx context.Context, id string) {
	if f.onStack != nil {
		f.onStack(id)
	}
}

func TestGetStackStateFromContainersAllRunning(t *testing.T) {
	services := map[string]StackServiceStatus{
		"web": {State: models.StackStateRunning},
		"db":  {State: models.StackStateRunning},
	}
	assert.Equal(t, models.StackStateRunning, getStackStateFromContainers(services))
}

func TestGetStackStateFromContainersPartial(t *testing.T) {
	services := map[string]StackServiceStatus{
		"web": {State: models.StackStateRunning},
		"db":  {State: models.StackStateDown},
	}
	assert.Equal(t, models.StackStatePartial, getStackStateFromContainers(services))
}

func TestComposeContainerMatchRegexMatchesNumberedSuffix(t *testing.T) {
	re := composeContainerMatchRegex("web")
	assert.True(t, re.MatchString("myproject-web-1"))
	assert.True(t, re.MatchString("myproject_web_1"))
	assert.False(t, re.MatchString("myproject-webhook-1"))
}
