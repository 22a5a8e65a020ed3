package state

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// ActionAdapter implements execution.ActionLookup and execution.KeyIssuer.
// Every minted key is scoped to the well-known system action user, so a
// running script can only ever act with that pseudo-user's permissions
// regardless of who triggered the run.
type ActionAdapter struct {
	DB *database.Client
}

var (
	_ execution.ActionLookup = (*ActionAdapter)(nil)
	_ execution.KeyIssuer    = (*ActionAdapter)(nil)
)

func (a *ActionAdapter) action(ctx context.Context, actionID string) (*models.Action, error) {
	return database.GetResource[models.ActionConfig, models.ActionInfo](ctx, a.DB, models.KindAction, actionID)
}

func (a *ActionAdapter) FileContents(ctx context.Context, actionID string) (string, error) {
	action, err := a.action(ctx, actionID)
	if err != nil {
		return "", err
	}
	return action.Config.FileContents, nil
}

func (a *ActionAdapter) PersistLastRun(ctx context.Context, actionID string, ranAt int64) error {
	action, err := a.action(ctx, actionID)
	if err != nil {
		return err
	}
	action.Info.LastRunAt = ranAt
	return database.UpsertResource(ctx, a.DB, models.KindAction, action)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (a *ActionAdapter) IssueKey(ctx context.Context) (string, string, error) {
	key, err := randomHex(16)
	if err != nil {
		return "", "", err
	}
	secret, err := randomHex(32)
	if err != nil {
		return "", "", err
	}
	apiKey := &models.ApiKey{Key: key, Secret: secret, UserID: models.ActionUserID, CreatedAt: update.WallClock()}
	if err := a.DB.InsertApiKey(ctx, apiKey); err != nil {
		return "", "", err
	}
	return key, secret, nil
}

func (a *ActionAdapter) RevokeKey(ctx context.Context, key string) error {
	return a.DB.DeleteApiKey(ctx, key)
}
