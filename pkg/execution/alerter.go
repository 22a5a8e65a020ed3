package execution

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// AlertEndpoint sends one rendered alert to one alerter's destination,
// matching pkg/alert.Endpoint's contract without importing pkg/alert
// directly (avoids a dependency cycle since pkg/alert never needs
// pkg/execution).
type AlertEndpoint interface {
	Send(ctx context.Context, cfg models.AlerterConfig, alert models.Alert) error
}

// AlerterResolver looks up a configured Alerter's config and the endpoint
// that serves its kind.
type AlerterResolver interface {
	ConfigFor(ctx context.Context, alerterID string) (models.AlerterConfig, error)
	EndpointFor(kind models.AlerterEndpointKind) (AlertEndpoint, bool)
}

// TestAlerterHandler sends a synthetic Test-variant alert straight to the
// targeted alerter's endpoint, bypassing the pipeline's Accepts filtering
// and persistence so a misconfigured alert_types/resource_targets filter
// never blocks a user's "send me a test message" check.
func TestAlerterHandler(resolver AlerterResolver, now func() int64) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		cfg, err := resolver.ConfigFor(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		endpoint, ok := resolver.EndpointFor(cfg.Kind)
		if !ok {
			return fmt.Errorf("no endpoint configured for alerter kind %s", cfg.Kind)
		}

		test := models.Alert{
			ID:      uuid.NewString(),
			Ts:      now(),
			Level:   models.SeverityOk,
			Target:  req.Target,
			Variant: models.AlertTest,
			Data:    models.AlertData{Test: &models.TestData{ID: req.Target.ID}},
		}
		if err := endpoint.Send(ctx, cfg, test); err != nil {
			return err
		}
		return journal.AppendLog(ctx, u, models.Log{Stage: "test alert", Stdout: "sent", Success: true})
	}
}
