package state

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/cloud"
	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/periphery"
)

// CloudProvisioners resolves the two cloud backends by builder kind; a nil
// field means that backend has no credentials configured, so a build
// targeting it fails with a clear error instead of panicking on a nil
// Provisioner.
type CloudProvisioners struct {
	AWS     cloud.Provisioner
	Hetzner cloud.Provisioner
}

func (p CloudProvisioners) forKind(kind models.BuilderKind) (cloud.Provisioner, error) {
	switch kind {
	case models.BuilderKindAws:
		if p.AWS == nil {
			return nil, fmt.Errorf("state: no AWS provisioner configured")
		}
		return p.AWS, nil
	case models.BuilderKindHetzner:
		if p.Hetzner == nil {
			return nil, fmt.Errorf("state: no Hetzner provisioner configured")
		}
		return p.Hetzner, nil
	default:
		return nil, fmt.Errorf("state: builder kind %s has no cloud backend", kind)
	}
}

func cloudLaunchConfig(c models.CloudBuilderConfig) cloud.LaunchConfig {
	return cloud.LaunchConfig{
		InstanceType: c.InstanceType,
		AMI:          c.AMI,
		ServerType:   c.ServerType,
		Image:        c.Image,
		Region:       c.Region,
		Datacenter:   c.Datacenter,
		SubnetID:     c.SubnetID,
		KeyPairName:  c.KeyPairName,
		VolumeGB:     c.VolumeGB,
	}
}

// BuilderAdapter implements execution.BuilderResolver, choosing between an
// existing Server and a freshly launched cloud instance per the targeted
// Build's Builder config.
type BuilderAdapter struct {
	DB        *database.Client
	Periphery *PeripheryFactory
	Cloud     CloudProvisioners
}

var _ execution.BuilderResolver = (*BuilderAdapter)(nil)

func (a *BuilderAdapter) build(ctx context.Context, buildID string) (*models.Build, error) {
	return database.GetResource[models.BuildConfig, models.BuildInfo](ctx, a.DB, models.KindBuild, buildID)
}

func (a *BuilderAdapter) builder(ctx context.Context, builderID string) (*models.Builder, error) {
	return database.GetResource[models.BuilderConfig, models.BuilderInfo](ctx, a.DB, models.KindBuilder, builderID)
}

func (a *BuilderAdapter) ResolveServerBuilder(ctx context.Context, buildID string) (periphery.Client, bool, error) {
	build, err := a.build(ctx, buildID)
	if err != nil {
		return nil, false, err
	}
	builder, err := a.builder(ctx, build.Config.BuilderID)
	if err != nil {
		return nil, false, err
	}
	if builder.Config.Kind != models.BuilderKindServer {
		return nil, false, nil
	}
	client, err := a.Periphery.ClientForID(ctx, builder.Config.ServerID)
	if err != nil {
		return nil, false, err
	}
	return client, true, nil
}

func (a *BuilderAdapter) LaunchCloudBuilder(ctx context.Context, buildID string) (periphery.Client, func(context.Context) error, error) {
	build, err := a.build(ctx, buildID)
	if err != nil {
		return nil, nil, err
	}
	builder, err := a.builder(ctx, build.Config.BuilderID)
	if err != nil {
		return nil, nil, err
	}
	if builder.Config.Cloud == nil {
		return nil, nil, fmt.Errorf("state: builder %s is not cloud-backed", builder.ID)
	}
	provisioner, err := a.Cloud.forKind(builder.Config.Kind)
	if err != nil {
		return nil, nil, err
	}

	cfg := cloudLaunchConfig(*builder.Config.Cloud)
	instance, err := provisioner.Launch(ctx, "komodo-build-"+buildID, cfg)
	if err != nil {
		return nil, nil, err
	}

	client := periphery.NewHTTPClient(instance.IP, a.Periphery.DefaultPasskey, a.Periphery.DefaultTimeout)
	cleanup := func(ctx context.Context) error {
		return cloud.TerminateWithRetry(ctx, func(ctx context.Context) error {
			return provisioner.Terminate(ctx, cfg.Region, instance.InstanceID)
		})
	}
	return client, cleanup, nil
}

func (a *BuilderAdapter) CurrentVersion(ctx context.Context, buildID string) (string, error) {
	build, err := a.build(ctx, buildID)
	if err != nil {
		return "", err
	}
	return build.Config.Version, nil
}

func (a *BuilderAdapter) PersistBuildResult(ctx context.Context, buildID, version string, builtAt int64) error {
	build, err := a.build(ctx, buildID)
	if err != nil {
		return err
	}
	build.Config.Version = version
	build.Info.LastBuiltAt = builtAt
	return database.UpsertResource(ctx, a.DB, models.KindBuild, build)
}

func (a *BuilderAdapter) RepoAndBranch(ctx context.Context, buildID string) (repo, branch string, err error) {
	build, err := a.build(ctx, buildID)
	if err != nil {
		return "", "", err
	}
	return build.Config.RepoURL, build.Config.Branch, nil
}

func (a *BuilderAdapter) ImageTags(ctx context.Context, buildID string) ([]string, error) {
	build, err := a.build(ctx, buildID)
	if err != nil {
		return nil, err
	}
	return []string{execution.BuildImageTag(build.Config.ImageName, build.Config.Version)}, nil
}
