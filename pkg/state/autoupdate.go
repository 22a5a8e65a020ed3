package state

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/monitor"
)

// autoRedeployUser is the system pseudo-user every auto-redeploy runs
// under, matching the auth the webhook listener gives github_user.
var autoRedeployUser = &models.User{ID: models.AutoRedeployUserID, Username: models.AutoRedeployUserID, Admin: true, Enabled: true}

// AutoUpdater implements monitor.AutoUpdater and execution.PostBuildRedeployer
// by routing through the same execution.Engine user-facing deploys go
// through, so an auto-redeploy produces an ordinary journaled Update. Its
// methods have no error return (neither the monitor's tick loop nor a build
// handler mid-finalize can usefully propagate one), so failures are logged
// rather than surfaced to the caller.
type AutoUpdater struct {
	Engine  *execution.Engine
	DB      *database.Client
	Monitor *monitor.Scheduler
}

func (u *AutoUpdater) TriggerDeploymentRedeploy(ctx context.Context, deploymentID string) {
	target := models.NewTarget(models.KindDeployment, deploymentID)
	if _, err := u.Engine.Execute(ctx, execution.ExecuteRequest{Type: execution.TypeDeploy, Target: target}, autoRedeployUser); err != nil {
		slog.Error("auto-redeploy failed", "deployment", deploymentID, "error", err)
	}
}

func (u *AutoUpdater) TriggerStackRedeploy(ctx context.Context, stackID string) {
	target := models.NewTarget(models.KindStack, stackID)
	if _, err := u.Engine.Execute(ctx, execution.ExecuteRequest{Type: execution.TypeDeployStack, Target: target}, autoRedeployUser); err != nil {
		slog.Error("auto-redeploy failed", "stack", stackID, "error", err)
	}
}

// RedeployOnBuild implements execution.PostBuildRedeployer: every Running
// deployment that references buildID with redeploy_on_build=true gets
// redeployed through the same engine path TriggerDeploymentRedeploy uses, so
// a successful build lands on its deployments immediately instead of merely
// flipping update_available for the next monitor tick.
func (u *AutoUpdater) RedeployOnBuild(ctx context.Context, buildID string) {
	deployments, err := database.ListResources[models.DeploymentConfig, models.DeploymentInfo](ctx, u.DB, models.KindDeployment, bson.M{
		"config.image.build_id":    buildID,
		"config.redeploy_on_build": true,
	})
	if err != nil {
		slog.Error("post-build redeploy: list deployments", "build", buildID, "error", err)
		return
	}
	for _, d := range deployments {
		if u.Monitor != nil && u.Monitor.DeploymentStatus(d.ID).State != models.DeploymentStateRunning {
			continue
		}
		u.TriggerDeploymentRedeploy(ctx, d.ID)
	}
}
