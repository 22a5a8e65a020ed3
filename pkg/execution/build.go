package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/periphery"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// BuilderResolver resolves the periphery client to run a Build on — either
// an existing Server, or a freshly launched cloud instance — and persists
// the build's bumped version and last_built_at on success.
type BuilderResolver interface {
	ResolveServerBuilder(ctx context.Context, buildID string) (periphery.Client, bool, error)
	LaunchCloudBuilder(ctx context.Context, buildID string) (periphery.Client, func(context.Context) error, error)
	CurrentVersion(ctx context.Context, buildID string) (string, error)
	PersistBuildResult(ctx context.Context, buildID, version string, builtAt int64) error
	RepoAndBranch(ctx context.Context, buildID string) (repo, branch string, err error)
	ImageTags(ctx context.Context, buildID string) ([]string, error)
}

// CancelBroadcaster is the global (build_id, cancelled) broadcast channel
// RunBuild subscribes to.
type CancelBroadcaster interface {
	Subscribe(buildID string) (<-chan struct{}, func())
}

// PostBuildRedeployer triggers Deploy for every Running deployment that
// references a successfully-built Build with redeploy_on_build=true,
// implementing spec.md's post_build_redeploy step. pkg/state.AutoUpdater
// implements this the same way it implements monitor.AutoUpdater, so a
// post-build redeploy produces an ordinary journaled Update rather than a
// side-channel container restart.
type PostBuildRedeployer interface {
	RedeployOnBuild(ctx context.Context, buildID string)
}

const (
	builderPollTries    = 30
	builderPollInterval = 2 * time.Second
)

// BumpVersion increments the patch component of a build's semver, per
// the "increment the build's version (semver)".
func BumpVersion(current string) (string, error) {
	v, err := semver.NewVersion(current)
	if err != nil {
		v = semver.MustParse("0.0.0")
	}
	bumped := v.IncPatch()
	return bumped.String(), nil
}

// RunBuildHandler resolves a builder, runs the build over periphery, and
// bumps the build's stored version on success. redeploy may be nil (no
// post_build_redeploy step, e.g. in tests that don't need it).
func RunBuildHandler(resolver BuilderResolver, cancel CancelBroadcaster, now func() int64, redeploy PostBuildRedeployer) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		var cancelCh <-chan struct{}
		var unsubscribe func()
		if cancel != nil {
			cancelCh, unsubscribe = cancel.Subscribe(req.Target.ID)
			defer unsubscribe()
		}

		client, serverBacked, err := resolver.ResolveServerBuilder(ctx, req.Target.ID)
		var cleanup func(context.Context) error
		if err != nil {
			return err
		}
		if client == nil {
			client, cleanup, err = resolver.LaunchCloudBuilder(ctx, req.Target.ID)
			if err != nil {
				return err
			}
			if err := pollUntilReachable(ctx, client, cancelCh); err != nil {
				if cleanup != nil {
					_ = cleanup(ctx)
				}
				return err
			}
		}

		repo, branch, err := resolver.RepoAndBranch(ctx, req.Target.ID)
		if err != nil {
			return err
		}

		if cancelled(cancelCh) {
			return journalCancelled(ctx, journal, u)
		}
		cloneLog, err := client.CloneRepo(ctx, periphery.CloneRepoRequest{Name: req.Target.ID, Repo: repo, Branch: branch})
		if err != nil {
			return cleanupAndFail(ctx, cleanup, serverBacked, client, req.Target.ID, err)
		}
		if err := journal.AppendLog(ctx, u, cloneLog); err != nil {
			return err
		}

		if cancelled(cancelCh) {
			return journalCancelled(ctx, journal, u)
		}
		tags, err := resolver.ImageTags(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		buildLogs, err := client.Build(ctx, periphery.BuildRequest{Name: req.Target.ID, ImageTags: tags})
		if err != nil {
			return cleanupAndFail(ctx, cleanup, serverBacked, client, req.Target.ID, err)
		}
		for _, log := range buildLogs {
			if err := journal.AppendLog(ctx, u, log); err != nil {
				return err
			}
		}

		if serverBacked {
			if deleteLog, err := client.DeleteRepo(ctx, req.Target.ID); err == nil {
				_ = journal.AppendLog(ctx, u, deleteLog)
			}
		} else if cleanup != nil {
			_ = cleanup(ctx)
		}

		if !u.AllLogsSuccessful() {
			return nil
		}

		current, err := resolver.CurrentVersion(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		bumped, err := BumpVersion(current)
		if err != nil {
			return err
		}
		builtAt := now()
		if err := resolver.PersistBuildResult(ctx, req.Target.ID, bumped, builtAt); err != nil {
			return err
		}
		u.Version = bumped

		if redeploy != nil {
			redeploy.RedeployOnBuild(ctx, req.Target.ID)
		}
		return nil
	}
}

func pollUntilReachable(ctx context.Context, client periphery.Client, cancelCh <-chan struct{}) error {
	for i := 0; i < builderPollTries; i++ {
		if cancelled(cancelCh) {
			return fmt.Errorf("build cancelled while waiting for builder")
		}
		if _, err := client.GetVersion(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(builderPollInterval):
		}
	}
	return fmt.Errorf("cloud builder did not become reachable after %d tries", builderPollTries)
}

func cancelled(ch <-chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func journalCancelled(ctx context.Context, journal *update.Journal, u *models.Update) error {
	return journal.AppendLog(ctx, u, models.Log{Stage: "cancel", Stdout: "build cancelled", Success: false})
}

func cleanupAndFail(ctx context.Context, cleanup func(context.Context) error, serverBacked bool, client periphery.Client, buildID string, cause error) error {
	if !serverBacked && cleanup != nil {
		_ = cleanup(ctx)
	} else if serverBacked {
		_, _ = client.DeleteRepo(ctx, buildID)
	}
	return cause
}
