package state

import (
	"context"

	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/periphery"
)

// RepoAdapter implements execution.RepoResolver and execution.BuildRepoResolver
// for Repo targets checked out directly on a Server.
type RepoAdapter struct {
	DB        *database.Client
	Periphery *PeripheryFactory
}

var (
	_ execution.RepoResolver      = (*RepoAdapter)(nil)
	_ execution.BuildRepoResolver = (*RepoAdapter)(nil)
)

func (a *RepoAdapter) repo(ctx context.Context, repoID string) (*models.Repo, error) {
	return database.GetResource[models.RepoConfig, models.RepoInfo](ctx, a.DB, models.KindRepo, repoID)
}

func (a *RepoAdapter) ClientFor(ctx context.Context, repoID string) (periphery.Client, error) {
	r, err := a.repo(ctx, repoID)
	if err != nil {
		return nil, err
	}
	return a.Periphery.ClientForID(ctx, r.Config.ServerID)
}

func (a *RepoAdapter) CloneRequest(ctx context.Context, repoID string) (periphery.CloneRepoRequest, error) {
	r, err := a.repo(ctx, repoID)
	if err != nil {
		return periphery.CloneRepoRequest{}, err
	}
	return periphery.CloneRepoRequest{
		Name:       r.Name,
		Repo:       r.Config.RepoURL,
		Branch:     r.Config.Branch,
		OnCloneCmd: r.Config.OnClone,
	}, nil
}

func (a *RepoAdapter) PullRequest(ctx context.Context, repoID string) (periphery.PullRepoRequest, error) {
	r, err := a.repo(ctx, repoID)
	if err != nil {
		return periphery.PullRepoRequest{}, err
	}
	return periphery.PullRepoRequest{Name: r.Name, OnPullCmd: r.Config.OnPull}, nil
}

func (a *RepoAdapter) PersistLastPulled(ctx context.Context, repoID string, pulledAt int64) error {
	r, err := a.repo(ctx, repoID)
	if err != nil {
		return err
	}
	r.Info.LastPulledAt = pulledAt
	return database.UpsertResource(ctx, a.DB, models.KindRepo, r)
}

// BuildRequest resolves the Dockerfile/build-args/image-tags a standalone
// repo build runs with. A repo build always tags only its own name, since
// (unlike a Build resource) a Repo carries no builder/version lineage.
func (a *RepoAdapter) BuildRequest(ctx context.Context, repoID string) (periphery.BuildRequest, error) {
	r, err := a.repo(ctx, repoID)
	if err != nil {
		return periphery.BuildRequest{}, err
	}
	return periphery.BuildRequest{
		Name:      r.Name,
		ImageTags: []string{r.Name + ":latest"},
	}, nil
}
