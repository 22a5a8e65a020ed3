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

// CustomEndpoint POSTs the Alert as plain JSON to a user-configured URL, for
// alerters that don't speak Slack or Discord.
type CustomEndpoint struct {
	HTTP *http.Client
}

func NewCustomEndpoint() *CustomEndpoint {
	return &CustomEndpoint{HTTP: http.DefaultClient}
}

func (e *CustomEndpoint) Send(ctx context.Context, cfg models.AlerterConfig, alert models.Alert) error {
	url := os.Getenv(cfg.CustomURLEnvVar)
	if url == "" {
		return fmt.Errorf("alert: custom webhook env var %q is unset", cfg.CustomURLEnvVar)
	}

	body, err := json.Marshal(alert)
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
		return fmt.Errorf("custom alerter: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
