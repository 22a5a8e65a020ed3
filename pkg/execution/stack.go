package execution

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/periphery"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// StackResolver looks up the periphery client and ComposeRequest for a
// Stack target, and persists the deployed-contents hash after a successful
// deploy so the monitor's drift check has a baseline.
type StackResolver interface {
	ClientFor(ctx context.Context, stackID string) (periphery.Client, error)
	ServerReachable(ctx context.Context, stackID string) (bool, error)
	ComposeRequest(ctx context.Context, stackID string, services []string) (periphery.ComposeRequest, error)
	PersistDeployResult(ctx context.Context, stackID, contentsHash string, deployedAt int64) error
}

// DeployStackHandler checks that the stack's server is reachable, runs
// ComposePull (a failed pull is skipped and its log dropped), then ComposeUp,
// and finally reads the compose contents back from the host to persist their
// hash. It does not write compose contents to the host.
func DeployStackHandler(resolver StackResolver, now func() int64) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		reachable, err := resolver.ServerReachable(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		if !reachable {
			return fmt.Errorf("server for stack %s is not reachable", req.Target.ID)
		}

		client, err := resolver.ClientFor(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		composeReq, err := resolver.ComposeRequest(ctx, req.Target.ID, req.Services)
		if err != nil {
			return err
		}

		pullLog, err := client.ComposePull(ctx, composeReq)
		if err == nil {
			_ = journal.AppendLog(ctx, u, pullLog)
		}

		logs, err := client.ComposeUp(ctx, composeReq)
		if err != nil {
			return err
		}
		for _, log := range logs {
			if err := journal.AppendLog(ctx, u, log); err != nil {
				return err
			}
		}

		contents, err := client.GetComposeContentsOnHost(ctx, composeReq)
		if err != nil {
			return err
		}
		sum := sha256.Sum256([]byte(contents))
		return resolver.PersistDeployResult(ctx, req.Target.ID, hex.EncodeToString(sum[:]), now())
	}
}

// PullStackHandler runs ComposePull for the targeted services.
func PullStackHandler(resolver StackResolver) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		client, err := resolver.ClientFor(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		composeReq, err := resolver.ComposeRequest(ctx, req.Target.ID, req.Services)
		if err != nil {
			return err
		}
		log, err := client.ComposePull(ctx, composeReq)
		if err != nil {
			return err
		}
		return journal.AppendLog(ctx, u, log)
	}
}

// composeServiceCommand runs a project-scoped compose command (start/stop/
// down) via ComposeExecution, shared by Start/Stop/DestroyStackHandler.
func composeServiceCommand(resolver StackResolver, command string) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		client, err := resolver.ClientFor(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		composeReq, err := resolver.ComposeRequest(ctx, req.Target.ID, req.Services)
		if err != nil {
			return err
		}
		log, err := client.ComposeExecution(ctx, periphery.ComposeExecutionRequest{
			ProjectName: composeReq.ProjectName,
			Command:     command,
		})
		if err != nil {
			return err
		}
		return journal.AppendLog(ctx, u, log)
	}
}

func StartStackHandler(resolver StackResolver) Handler {
	return composeServiceCommand(resolver, "start")
}

func StopStackHandler(resolver StackResolver) Handler {
	return composeServiceCommand(resolver, "stop")
}

func DestroyStackHandler(resolver StackResolver) Handler {
	return composeServiceCommand(resolver, "down")
}
