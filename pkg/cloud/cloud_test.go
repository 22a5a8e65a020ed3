package cloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminateWithRetrySucceedsEventually(t *testing.T) {
	attempts := 0
	err := TerminateWithRetry(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return assert.AnError
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestTerminateWithRetryExhaustsAndFails(t *testing.T) {
	attempts := 0
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := TerminateWithRetry(ctx, func(ctx context.Context) error {
		attempts++
		return assert.AnError
	})
	assert.Error(t, err)
}

func TestHetznerProvisionerLaunchPolls(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/servers":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"server": map[string]any{"id": 1, "status": "starting"},
			})
		case r.Method == http.MethodGet:
			calls++
			status := "starting"
			if calls >= 2 {
				status = "running"
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"server": map[string]any{
					"id":         1,
					"status":     status,
					"public_net": map[string]any{"ipv4": map[string]any{"ip": "1.2.3.4"}},
				},
			})
		}
	}))
	defer server.Close()

	p := NewHetznerProvisioner("token")
	p.HTTP = server.Client()
	p.PollEvery = time.Millisecond
	p.MaxPolls = 10

	original := hetznerAPIBase
	hetznerAPIBase = server.URL
	defer func() { hetznerAPIBase = original }()

	instance, err := p.Launch(context.Background(), "build-1", LaunchConfig{ServerType: "cx11", Image: "ubuntu-22.04"})
	require.NoError(t, err)
	assert.Equal(t, "1", instance.InstanceID)
	assert.Equal(t, "1.2.3.4", instance.IP)
}
