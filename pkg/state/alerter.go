package state

import (
	"context"

	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
)

// AlerterAdapter implements execution.AlerterResolver, wiring each
// AlerterEndpointKind to the concrete pkg/alert endpoint that serves it.
type AlerterAdapter struct {
	DB        *database.Client
	Endpoints map[models.AlerterEndpointKind]execution.AlertEndpoint
}

var _ execution.AlerterResolver = (*AlerterAdapter)(nil)

func (a *AlerterAdapter) ConfigFor(ctx context.Context, alerterID string) (models.AlerterConfig, error) {
	alerter, err := database.GetResource[models.AlerterConfig, models.AlerterInfo](ctx, a.DB, models.KindAlerter, alerterID)
	if err != nil {
		return models.AlerterConfig{}, err
	}
	return alerter.Config, nil
}

func (a *AlerterAdapter) EndpointFor(kind models.AlerterEndpointKind) (execution.AlertEndpoint, bool) {
	ep, ok := a.Endpoints[kind]
	return ep, ok
}
