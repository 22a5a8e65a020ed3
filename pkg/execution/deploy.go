package execution

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/periphery"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// ImageResolver resolves a Deployment's configured image to a concrete tag,
// inheriting the referenced Build's registry account when the deployment
// itself left that field empty, and exposes the rest of the deployment's
// config so Deploy can carry it to the periphery agent alongside the
// resolved image.
type ImageResolver interface {
	ResolveImage(ctx context.Context, deploymentID string) (image string, err error)
	DeploymentConfig(ctx context.Context, deploymentID string) (models.DeploymentConfig, error)
}

// DeployHandler implements the Deploy request: resolve the image, then send
// the whole recreate request — name, resolved image, and the rest of the
// deployment's config — to the periphery agent in one RPC, mirroring the
// original source's requests::Deploy{deployment, stop_signal, stop_time}.
// Sending a bare container name here would silently replay the container's
// previous image even when resolveImage picked a new one, which is exactly
// what breaks the auto-update scenario (spec.md §8): update_available can
// never go back to false if the agent never actually pulls the new tag.
func DeployHandler(resolver PeripheryResolver, images ImageResolver) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		reachable, err := resolver.ServerReachable(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		if !reachable {
			return fmt.Errorf("server for deployment %s is not reachable", req.Target.ID)
		}

		image, err := images.ResolveImage(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		if err := journal.AppendLog(ctx, u, models.Log{Stage: "resolve image", Stdout: image, Success: true}); err != nil {
			return err
		}

		cfg, err := images.DeploymentConfig(ctx, req.Target.ID)
		if err != nil {
			return err
		}

		client, err := resolver.ClientFor(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		name, err := resolver.ContainerName(ctx, req.Target.ID)
		if err != nil {
			return err
		}

		signal := req.Signal
		if signal == "" {
			signal = "SIGTERM"
		}
		timeSec := req.TimeSec
		if timeSec == 0 {
			timeSec = cfg.TerminationGrace
		}

		deployLog, err := client.DeployContainer(ctx, periphery.DeployContainerRequest{
			Name:            name,
			Image:           image,
			RegistryAccount: cfg.RegistryAccount,
			RestartMode:     cfg.RestartMode,
			Environment:     cfg.Environment,
			Ports:           cfg.Ports,
			Volumes:         cfg.Volumes,
			StopSignal:      signal,
			StopTimeSec:     timeSec,
		})
		if err != nil {
			return err
		}
		return journal.AppendLog(ctx, u, deployLog)
	}
}

// BuildImageTag implements the "Build { build_id, version }" → concrete
// tag resolution: {build_image_name}:{version}, or :latest if version is
// the zero value.
func BuildImageTag(buildImageName, version string) string {
	if version == "" || version == "0.0.0" {
		return buildImageName + ":latest"
	}
	return buildImageName + ":" + version
}
