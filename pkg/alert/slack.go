package alert

import (
	"context"
	"fmt"
	"os"

	goslack "github.com/slack-go/slack"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// SlackEndpoint renders an Alert as Block Kit and posts it via the
// slack-go SDK, the same wrapper style as the Slack client this codebase is
// descended from.
type SlackEndpoint struct {
	// NewClient lets tests substitute a client pointed at a mock API URL.
	NewClient func(token string) *goslack.Client
}

func NewSlackEndpoint() *SlackEndpoint {
	return &SlackEndpoint{NewClient: func(token string) *goslack.Client { return goslack.New(token) }}
}

func (e *SlackEndpoint) Send(ctx context.Context, cfg models.AlerterConfig, alert models.Alert) error {
	token := os.Getenv(cfg.SlackURLEnvVar)
	if token == "" {
		return fmt.Errorf("alert: slack token env var %q is unset", cfg.SlackURLEnvVar)
	}

	client := e.NewClient(token)
	blocks := buildSlackBlocks(alert)

	opts := []goslack.MsgOption{goslack.MsgOptionBlocks(blocks...)}
	_, _, err := client.PostMessageContext(ctx, cfg.SlackChannel, opts...)
	if err != nil {
		return fmt.Errorf("slack: chat.postMessage failed: %w", err)
	}
	return nil
}

func buildSlackBlocks(alert models.Alert) []goslack.Block {
	emoji := severityEmoji(alert)
	text := fmt.Sprintf("%s *%s* on %s", emoji, alert.Variant, alert.Target)
	if alert.Resolved {
		text += " _(resolved)_"
	}
	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
}

func severityEmoji(alert models.Alert) string {
	if alert.Resolved || alert.Level == models.SeverityOk {
		return ":white_check_mark:"
	}
	if alert.Level == models.SeverityCritical {
		return ":rotating_light:"
	}
	return ":warning:"
}
