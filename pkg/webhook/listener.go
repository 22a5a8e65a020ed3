// Package webhook implements the GitHub webhook listener: signature
// verification, branch matching, per-resource serialization, and dispatch
// into the execution pipeline as the github_user system pseudo-user.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
)

// RepoSource, BuildSource, ProcedureSource and SyncSource decouple the
// listener from pkg/database's concrete client, mirroring pkg/monitor's
// Source interfaces.
type RepoSource interface {
	GetRepo(ctx context.Context, id string) (*models.Repo, error)
}

type BuildSource interface {
	GetBuild(ctx context.Context, id string) (*models.Build, error)
}

type ProcedureSource interface {
	GetProcedure(ctx context.Context, id string) (*models.Procedure, error)
}

type SyncSource interface {
	GetSync(ctx context.Context, id string) (*models.ResourceSync, error)
}

// githubUser is the synthesized pseudo-user every webhook-triggered
// execution runs as. Admin bypasses the permission engine entirely:
// a verified webhook delivery is trusted the same as an operator action.
var githubUser = &models.User{ID: models.GithubUserID, Username: "github_user", Admin: true}

// Listener wires HTTP routes to the execution engine. HMAC secrets come
// from SecretFor, which the caller supplies.
type Listener struct {
	Repos      RepoSource
	Builds     BuildSource
	Procedures ProcedureSource
	Syncs      SyncSource
	Locks      *Locks
	Engine     *execution.Engine

	// SecretFor resolves the HMAC secret for a resource's configured env
	// var name; envVar is empty for resources without one. pkg/state's
	// resolver reads the env var and falls back to the global webhook
	// secret when envVar is empty or unset.
	SecretFor func(envVar string) string

	// Jitter bounds the random pre-verification sleep (default 500ms).
	Jitter time.Duration
}

func New(repos RepoSource, builds BuildSource, procs ProcedureSource, syncs SyncSource, locks *Locks, engine *execution.Engine, secretFor func(string) string) *Listener {
	return &Listener{
		Repos: repos, Builds: builds, Procedures: procs, Syncs: syncs,
		Locks: locks, Engine: engine, SecretFor: secretFor,
		Jitter: 500 * time.Millisecond,
	}
}

// Register mounts every webhook route under the given router group.
func (l *Listener) Register(r gin.IRouter) {
	g := r.Group("/webhook/github")
	g.POST("/build/:id", l.handleBuild)
	g.POST("/repo/:id/clone", l.handleRepoClone)
	g.POST("/repo/:id/pull", l.handleRepoPull)
	g.POST("/procedure/:id/:branch", l.handleProcedure)
	g.POST("/sync/:id/refresh", l.handleSyncRefresh)
	g.POST("/sync/:id/sync", l.handleSyncRun)
}

func (l *Listener) jitter() {
	d := l.Jitter
	if d <= 0 {
		return
	}
	time.Sleep(time.Duration(rand.Int63n(int64(d))))
}

// githubPushPayload is the subset of a GitHub push event payload the
// listener reads: just enough to recover the pushed branch.
type githubPushPayload struct {
	Ref string `json:"ref"`
}

// readVerifiedBody applies the jitter sleep, then verifies the raw body's
// HMAC signature against secret. It aborts the request on failure and
// returns ok=false.
func (l *Listener) readVerifiedBody(c *gin.Context, secret string) (body []byte, ok bool) {
	l.jitter()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return nil, false
	}

	sig := c.GetHeader("x-hub-signature-256")
	if err := VerifySignature(secret, body, sig); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return nil, false
	}
	return body, true
}

func (l *Listener) pushedBranch(body []byte) (string, error) {
	var payload githubPushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("webhook: malformed payload: %w", err)
	}
	return BranchFromRef(payload.Ref), nil
}

// execAsGithubUser runs req through the engine as the github_user
// pseudo-user, discarding the Update (the journal is the durable record;
// the webhook caller gets only success/failure).
func (l *Listener) execAsGithubUser(c *gin.Context, req execution.ExecuteRequest) {
	_, err := l.Engine.Execute(c.Request.Context(), req, githubUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (l *Listener) handleBuild(c *gin.Context) {
	id := c.Param("id")
	build, err := l.Builds.GetBuild(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	secret := l.secretFor(build.Config.WebhookSecretEnvVar)
	body, ok := l.readVerifiedBody(c, secret)
	if !ok {
		return
	}
	branch, err := l.pushedBranch(body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if build.Config.Branch != "" && branch != build.Config.Branch {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "branch mismatch"})
		return
	}

	target := models.NewTarget(models.KindBuild, id)
	l.Locks.Build.WithLock(id, func() {
		l.execAsGithubUser(c, execution.ExecuteRequest{Type: execution.TypeRunBuild, Target: target})
	})
}

func (l *Listener) handleRepoClone(c *gin.Context) {
	l.handleRepo(c, execution.TypeCloneRepo)
}

func (l *Listener) handleRepoPull(c *gin.Context) {
	l.handleRepo(c, execution.TypePullRepo)
}

func (l *Listener) handleRepo(c *gin.Context, reqType execution.RequestType) {
	id := c.Param("id")
	repo, err := l.Repos.GetRepo(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	secret := l.secretFor(repo.Config.WebhookSecretEnvVar)
	body, ok := l.readVerifiedBody(c, secret)
	if !ok {
		return
	}
	branch, err := l.pushedBranch(body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if repo.Config.Branch != "" && branch != repo.Config.Branch {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "branch mismatch"})
		return
	}

	target := models.NewTarget(models.KindRepo, id)
	l.Locks.Repo.WithLock(id, func() {
		l.execAsGithubUser(c, execution.ExecuteRequest{Type: reqType, Target: target})
	})
}

// handleProcedure compares against the URL-bound branch rather than any
// resource field, since ProcedureConfig carries no branch of its own.
func (l *Listener) handleProcedure(c *gin.Context) {
	id := c.Param("id")
	urlBranch := c.Param("branch")

	if _, err := l.Procedures.GetProcedure(c.Request.Context(), id); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	secret := l.secretFor("")
	body, ok := l.readVerifiedBody(c, secret)
	if !ok {
		return
	}
	branch, err := l.pushedBranch(body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if branch != urlBranch {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "branch mismatch"})
		return
	}

	target := models.NewTarget(models.KindProcedure, id)
	l.Locks.Procedure.WithLock(id, func() {
		l.execAsGithubUser(c, execution.ExecuteRequest{Type: execution.TypeRunProcedure, Target: target})
	})
}

func (l *Listener) handleSyncRefresh(c *gin.Context) {
	l.handleSync(c, false)
}

func (l *Listener) handleSyncRun(c *gin.Context) {
	l.handleSync(c, true)
}

func (l *Listener) handleSync(c *gin.Context, run bool) {
	id := c.Param("id")
	sync, err := l.Syncs.GetSync(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	secret := l.secretFor(sync.Config.WebhookSecretEnvVar)
	body, ok := l.readVerifiedBody(c, secret)
	if !ok {
		return
	}
	branch, err := l.pushedBranch(body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if sync.Config.Branch != "" && branch != sync.Config.Branch {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "branch mismatch"})
		return
	}

	if !run {
		// Refresh-only: the delivery is verified and acknowledged, but this
		// route does not recompute or queue anything; no refresh pass runs
		// in response to it.
		c.JSON(http.StatusOK, gin.H{"ok": true, "queued": "refresh"})
		return
	}

	target := models.NewTarget(models.KindResourceSync, id)
	l.Locks.Sync.WithLock(id, func() {
		l.execAsGithubUser(c, execution.ExecuteRequest{Type: execution.TypeRunSync, Target: target})
	})
}

func (l *Listener) secretFor(envVar string) string {
	if l.SecretFor == nil {
		return ""
	}
	return l.SecretFor(envVar)
}
