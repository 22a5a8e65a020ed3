package periphery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// HTTPClient implements Client by POSTing a tagged-union request body
// {type, params} to a periphery agent's base URL, authenticated with a
// shared passkey header. No periphery SDK exists in the example corpus —
// this bespoke protocol is implemented directly over net/http.
type HTTPClient struct {
	BaseURL string
	Passkey string
	Timeout time.Duration
	HTTP    *http.Client
}

func NewHTTPClient(baseURL, passkey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Passkey: passkey,
		Timeout: timeout,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type request struct {
	Type   string `json:"type"`
	Params any    `json:"params"`
}

func (c *HTTPClient) call(ctx context.Context, reqType string, params any, out any) error {
	body, err := json.Marshal(request{Type: reqType, Params: params})
	if err != nil {
		return fmt.Errorf("periphery: marshal request: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("periphery: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.Passkey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("periphery: %s: %w", reqType, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("periphery: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("periphery: %s returned %d: %s", reqType, resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("periphery: unmarshal %s response: %w", reqType, err)
	}
	return nil
}

func (c *HTTPClient) GetVersion(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	err := c.call(ctx, "GetVersion", struct{}{}, &out)
	return out.Version, err
}

func (c *HTTPClient) GetSystemInformation(ctx context.Context) (SystemInformation, error) {
	var out SystemInformation
	err := c.call(ctx, "GetSystemInformation", struct{}{}, &out)
	return out, err
}

func (c *HTTPClient) GetSystemStats(ctx context.Context) (SystemStats, error) {
	var out SystemStats
	err := c.call(ctx, "GetSystemStats", struct{}{}, &out)
	return out, err
}

func (c *HTTPClient) GetSystemProcesses(ctx context.Context) ([]SystemProcess, error) {
	var out []SystemProcess
	err := c.call(ctx, "GetSystemProcesses", struct{}{}, &out)
	return out, err
}

func (c *HTTPClient) GetContainerList(ctx context.Context) ([]Container, error) {
	var out []Container
	err := c.call(ctx, "GetContainerList", struct{}{}, &out)
	return out, err
}

func (c *HTTPClient) GetNetworkList(ctx context.Context) ([]Network, error) {
	var out []Network
	err := c.call(ctx, "GetNetworkList", struct{}{}, &out)
	return out, err
}

func (c *HTTPClient) GetImageList(ctx context.Context) ([]Image, error) {
	var out []Image
	err := c.call(ctx, "GetImageList", struct{}{}, &out)
	return out, err
}

func (c *HTTPClient) DeployContainer(ctx context.Context, req DeployContainerRequest) (models.Log, error) {
	var out models.Log
	err := c.call(ctx, "container.Deploy", req, &out)
	return out, err
}

func (c *HTTPClient) StartContainer(ctx context.Context, name string) (models.Log, error) {
	var out models.Log
	err := c.call(ctx, "container.Start", map[string]string{"name": name}, &out)
	return out, err
}

func (c *HTTPClient) StopContainer(ctx context.Context, name, signal string, timeSec int) (models.Log, error) {
	var out models.Log
	params := map[string]any{"name": name, "signal": signal, "time": timeSec}
	err := c.call(ctx, "container.Stop", params, &out)
	return out, err
}

func (c *HTTPClient) RestartContainer(ctx context.Context, name string) (models.Log, error) {
	var out models.Log
	err := c.call(ctx, "container.Restart", map[string]string{"name": name}, &out)
	return out, err
}

func (c *HTTPClient) PauseContainer(ctx context.Context, name string) (models.Log, error) {
	var out models.Log
	err := c.call(ctx, "container.Pause", map[string]string{"name": name}, &out)
	return out, err
}

func (c *HTTPClient) UnpauseContainer(ctx context.Context, name string) (models.Log, error) {
	var out models.Log
	err := c.call(ctx, "container.Unpause", map[string]string{"name": name}, &out)
	return out, err
}

func (c *HTTPClient) RemoveContainer(ctx context.Context, name, signal string, timeSec int) (models.Log, error) {
	var out models.Log
	params := map[string]any{"name": name, "signal": signal, "time": timeSec}
	err := c.call(ctx, "container.Remove", params, &out)
	return out, err
}

func (c *HTTPClient) RenameContainer(ctx context.Context, name, newName string) (models.Log, error) {
	var out models.Log
	params := map[string]string{"name": name, "new_name": newName}
	err := c.call(ctx, "container.Rename", params, &out)
	return out, err
}

func (c *HTTPClient) CloneRepo(ctx context.Context, req CloneRepoRequest) (models.Log, error) {
	var out models.Log
	err := c.call(ctx, "git.CloneRepo", req, &out)
	return out, err
}

func (c *HTTPClient) PullRepo(ctx context.Context, req PullRepoRequest) (models.Log, error) {
	var out models.Log
	err := c.call(ctx, "git.PullRepo", req, &out)
	return out, err
}

func (c *HTTPClient) DeleteRepo(ctx context.Context, name string) (models.Log, error) {
	var out models.Log
	err := c.call(ctx, "git.DeleteRepo", map[string]string{"name": name}, &out)
	return out, err
}

func (c *HTTPClient) Build(ctx context.Context, req BuildRequest) ([]models.Log, error) {
	var out []models.Log
	err := c.call(ctx, "build.Build", req, &out)
	return out, err
}

func (c *HTTPClient) ComposePull(ctx context.Context, req ComposeRequest) (models.Log, error) {
	var out models.Log
	err := c.call(ctx, "compose.ComposePull", req, &out)
	return out, err
}

func (c *HTTPClient) ComposeUp(ctx context.Context, req ComposeRequest) ([]models.Log, error) {
	var out []models.Log
	err := c.call(ctx, "compose.ComposeUp", req, &out)
	return out, err
}

func (c *HTTPClient) ComposeExecution(ctx context.Context, req ComposeExecutionRequest) (models.Log, error) {
	var out models.Log
	err := c.call(ctx, "compose.ComposeExecution", req, &out)
	return out, err
}

func (c *HTTPClient) GetComposeContentsOnHost(ctx context.Context, req ComposeRequest) (string, error) {
	var out struct {
		Contents string `json:"contents"`
	}
	err := c.call(ctx, "compose.GetComposeContentsOnHost", req, &out)
	return out.Contents, err
}

func (c *HTTPClient) WriteComposeContentsToHost(ctx context.Context, req ComposeRequest, contents string) (models.Log, error) {
	var out models.Log
	params := struct {
		ComposeRequest
		Contents string `json:"contents"`
	}{req, contents}
	err := c.call(ctx, "compose.WriteComposeContentsToHost", params, &out)
	return out, err
}

func (c *HTTPClient) ListComposeProjects(ctx context.Context) ([]ComposeProject, error) {
	var out []ComposeProject
	err := c.call(ctx, "compose.ListComposeProjects", struct{}{}, &out)
	return out, err
}
