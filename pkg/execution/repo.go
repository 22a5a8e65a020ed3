package execution

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/periphery"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// RepoResolver looks up the periphery client for the server backing a Repo
// and the clone/pull parameters from its config, mirroring
// PeripheryResolver's deployment-facing split.
type RepoResolver interface {
	ClientFor(ctx context.Context, repoID string) (periphery.Client, error)
	CloneRequest(ctx context.Context, repoID string) (periphery.CloneRepoRequest, error)
	PullRequest(ctx context.Context, repoID string) (periphery.PullRepoRequest, error)
	PersistLastPulled(ctx context.Context, repoID string, pulledAt int64) error
}

// CloneRepoHandler implements the CloneRepo request.
func CloneRepoHandler(resolver RepoResolver) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		client, err := resolver.ClientFor(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		cloneReq, err := resolver.CloneRequest(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		log, err := client.CloneRepo(ctx, cloneReq)
		if err != nil {
			return err
		}
		return journal.AppendLog(ctx, u, log)
	}
}

// PullRepoHandler implements the PullRepo request, used both for direct
// execution and for the GitHub webhook's repo/:id/pull route.
func PullRepoHandler(resolver RepoResolver, now func() int64) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		client, err := resolver.ClientFor(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		pullReq, err := resolver.PullRequest(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		log, err := client.PullRepo(ctx, pullReq)
		if err != nil {
			return err
		}
		if err := journal.AppendLog(ctx, u, log); err != nil {
			return err
		}
		return resolver.PersistLastPulled(ctx, req.Target.ID, now())
	}
}

// BuildRepoResolver resolves the clone/build parameters for a standalone
// repo build, distinct from BuilderResolver's Build-resource flow: a repo
// build always runs on the repo's own configured server, never a cloud
// builder.
type BuildRepoResolver interface {
	ClientFor(ctx context.Context, repoID string) (periphery.Client, error)
	CloneRequest(ctx context.Context, repoID string) (periphery.CloneRepoRequest, error)
	BuildRequest(ctx context.Context, repoID string) (periphery.BuildRequest, error)
}

// BuildRepoHandler clones then builds a Repo on its own server, per the
// "BuildRepo" operation distinct from a Build resource's RunBuild.
func BuildRepoHandler(resolver BuildRepoResolver) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		client, err := resolver.ClientFor(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		cloneReq, err := resolver.CloneRequest(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		cloneLog, err := client.CloneRepo(ctx, cloneReq)
		if err != nil {
			return err
		}
		if err := journal.AppendLog(ctx, u, cloneLog); err != nil {
			return err
		}

		buildReq, err := resolver.BuildRequest(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		buildLogs, err := client.Build(ctx, buildReq)
		if err != nil {
			return fmt.Errorf("repo build failed: %w", err)
		}
		for _, log := range buildLogs {
			if err := journal.AppendLog(ctx, u, log); err != nil {
				return err
			}
		}
		return nil
	}
}
