package state

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/monitor"
	"github.com/komodo-run/komodo-core/pkg/periphery"
)

// DeploymentAdapter implements execution.PeripheryResolver and
// execution.ImageResolver for Deployment targets.
type DeploymentAdapter struct {
	DB        *database.Client
	Periphery *PeripheryFactory
	Monitor   *monitor.Scheduler
}

var (
	_ execution.PeripheryResolver = (*DeploymentAdapter)(nil)
	_ execution.ImageResolver     = (*DeploymentAdapter)(nil)
)

func (a *DeploymentAdapter) deployment(ctx context.Context, deploymentID string) (*models.Deployment, error) {
	return database.GetResource[models.DeploymentConfig, models.DeploymentInfo](ctx, a.DB, models.KindDeployment, deploymentID)
}

func (a *DeploymentAdapter) ClientFor(ctx context.Context, deploymentID string) (periphery.Client, error) {
	d, err := a.deployment(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	return a.Periphery.ClientForID(ctx, d.Config.ServerID)
}

func (a *DeploymentAdapter) ServerReachable(ctx context.Context, deploymentID string) (bool, error) {
	d, err := a.deployment(ctx, deploymentID)
	if err != nil {
		return false, err
	}
	return Reachable(a.Monitor, d.Config.ServerID), nil
}

func (a *DeploymentAdapter) ContainerName(ctx context.Context, deploymentID string) (string, error) {
	d, err := a.deployment(ctx, deploymentID)
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

// DeploymentConfig returns the deployment's stored config, used by Deploy to
// carry environment/ports/volumes/restart settings to the periphery agent
// alongside the image ResolveImage computes.
func (a *DeploymentAdapter) DeploymentConfig(ctx context.Context, deploymentID string) (models.DeploymentConfig, error) {
	d, err := a.deployment(ctx, deploymentID)
	if err != nil {
		return models.DeploymentConfig{}, err
	}
	return d.Config, nil
}

// ResolveImage turns a Deployment's tagged-union image config into a
// concrete pull tag: a plain Image is used as-is, a Build reference
// resolves the build's image name plus either the pinned version or the
// build's currently persisted version.
func (a *DeploymentAdapter) ResolveImage(ctx context.Context, deploymentID string) (string, error) {
	d, err := a.deployment(ctx, deploymentID)
	if err != nil {
		return "", err
	}
	img := d.Config.Image
	switch img.Kind {
	case models.DeploymentImagePlain:
		if img.Image == "" {
			return "", fmt.Errorf("deployment %s has no image configured", deploymentID)
		}
		return img.Image, nil
	case models.DeploymentImageBuild:
		build, err := database.GetResource[models.BuildConfig, models.BuildInfo](ctx, a.DB, models.KindBuild, img.BuildID)
		if err != nil {
			return "", err
		}
		version := img.Version
		if version == "" {
			version = build.Config.Version
		}
		return execution.BuildImageTag(build.Config.ImageName, version), nil
	default:
		return "", fmt.Errorf("deployment %s has unrecognized image kind %s", deploymentID, img.Kind)
	}
}
