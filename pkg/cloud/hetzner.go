package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// No Hetzner Cloud Go SDK appears anywhere in the example corpus, so this
// backend talks to the Hetzner Cloud API directly over net/http — the one
// deliberately stdlib-only component in this package (see DESIGN.md).
var hetznerAPIBase = "https://api.hetzner.cloud/v1"

type HetznerProvisioner struct {
	Token     string
	HTTP      *http.Client
	PollEvery time.Duration
	MaxPolls  int
}

func NewHetznerProvisioner(token string) *HetznerProvisioner {
	return &HetznerProvisioner{
		Token:     token,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		PollEvery: 2 * time.Second,
		MaxPolls:  30,
	}
}

type hetznerServerCreateRequest struct {
	Name       string `json:"name"`
	ServerType string `json:"server_type"`
	Image      string `json:"image"`
	Datacenter string `json:"datacenter,omitempty"`
	SSHKeys    []string `json:"ssh_keys,omitempty"`
}

type hetznerServerResponse struct {
	Server struct {
		ID        int64  `json:"id"`
		Status    string `json:"status"`
		PublicNet struct {
			IPv4 struct {
				IP string `json:"ip"`
			} `json:"ipv4"`
		} `json:"public_net"`
	} `json:"server"`
}

func (p *HetznerProvisioner) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, hetznerAPIBase+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("hetzner: %s %s returned %d: %s", method, path, resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func (p *HetznerProvisioner) Launch(ctx context.Context, name string, cfg LaunchConfig) (Instance, error) {
	var created hetznerServerResponse
	createReq := hetznerServerCreateRequest{
		Name:       name,
		ServerType: cfg.ServerType,
		Image:      cfg.Image,
		Datacenter: cfg.Datacenter,
	}
	if err := p.do(ctx, http.MethodPost, "/servers", createReq, &created); err != nil {
		return Instance{}, fmt.Errorf("hetzner: create server: %w", err)
	}

	id := created.Server.ID
	if err := p.pollUntilRunning(ctx, id); err != nil {
		return Instance{}, err
	}

	var final hetznerServerResponse
	if err := p.do(ctx, http.MethodGet, fmt.Sprintf("/servers/%d", id), nil, &final); err != nil {
		return Instance{}, fmt.Errorf("hetzner: get server: %w", err)
	}

	return Instance{
		InstanceID: fmt.Sprintf("%d", id),
		IP:         final.Server.PublicNet.IPv4.IP,
	}, nil
}

func (p *HetznerProvisioner) pollUntilRunning(ctx context.Context, id int64) error {
	for i := 0; i < p.MaxPolls; i++ {
		var status hetznerServerResponse
		if err := p.do(ctx, http.MethodGet, fmt.Sprintf("/servers/%d", id), nil, &status); err == nil {
			if status.Server.Status == "running" {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.PollEvery):
		}
	}
	return fmt.Errorf("hetzner: server %d did not reach running after %d polls", id, p.MaxPolls)
}

func (p *HetznerProvisioner) Terminate(ctx context.Context, _ string, instanceID string) error {
	return p.do(ctx, http.MethodDelete, "/servers/"+instanceID, nil, nil)
}
