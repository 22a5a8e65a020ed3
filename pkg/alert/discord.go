package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// DiscordEndpoint posts an Alert as a Discord webhook embed. No Discord SDK
// appears in the example corpus, so this talks to the webhook URL directly
// over net/http, the same way pkg/cloud's Hetzner backend does.
type DiscordEndpoint struct {
	HTTP *http.Client
}

func NewDiscordEndpoint() *DiscordEndpoint {
	return &DiscordEndpoint{HTTP: http.DefaultClient}
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

func (e *DiscordEndpoint) Send(ctx context.Context, cfg models.AlerterConfig, alert models.Alert) error {
	url := os.Getenv(cfg.DiscordURLEnvVar)
	if url == "" {
		return fmt.Errorf("alert: discord webhook env var %q is unset", cfg.DiscordURLEnvVar)
	}

	payload := discordWebhookPayload{Embeds: []discordEmbed{{
		Title:       string(alert.Variant),
		Description: fmt.Sprintf("%s (%s)", alert.Target, alert.Level),
		Color:       discordColor(alert),
	}}}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func discordColor(alert models.Alert) int {
	if alert.Resolved || alert.Level == models.SeverityOk {
		return 0x2ecc71
	}
	if alert.Level == models.SeverityCritical {
		return 0xe74c3c
	}
	return 0xf39c12
}
