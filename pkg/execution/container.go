package execution

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/periphery"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// PeripheryResolver looks up the periphery client for the server backing a
// deployment/stack target, and reports whether that server's monitoring
// cache currently considers it reachable (state == Ok).
type PeripheryResolver interface {
	ClientFor(ctx context.Context, deploymentID string) (periphery.Client, error)
	ServerReachable(ctx context.Context, deploymentID string) (bool, error)
	ContainerName(ctx context.Context, deploymentID string) (string, error)
}

// ContainerHandlers builds the Start/Restart/Pause/Unpause handlers for the
// caller to register, sharing one resolver. Stop and Remove come from
// StopContainerHandler and RemoveContainerHandler instead.
func ContainerHandlers(resolver PeripheryResolver) map[RequestType]Handler {
	run := func(op func(ctx context.Context, c periphery.Client, name string) (models.Log, error)) Handler {
		return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
			reachable, err := resolver.ServerReachable(ctx, req.Target.ID)
			if err != nil {
				return err
			}
			if !reachable {
				return fmt.Errorf("server for deployment %s is not reachable", req.Target.ID)
			}
			client, err := resolver.ClientFor(ctx, req.Target.ID)
			if err != nil {
				return err
			}
			name, err := resolver.ContainerName(ctx, req.Target.ID)
			if err != nil {
				return err
			}
			log, err := op(ctx, client, name)
			if err != nil {
				return err
			}
			return journal.AppendLog(ctx, u, log)
		}
	}

	return map[RequestType]Handler{
		TypeStartContainer: run(func(ctx context.Context, c periphery.Client, name string) (models.Log, error) {
			return c.StartContainer(ctx, name)
		}),
		TypeRestartContainer: run(func(ctx context.Context, c periphery.Client, name string) (models.Log, error) {
			return c.RestartContainer(ctx, name)
		}),
		TypePauseContainer: run(func(ctx context.Context, c periphery.Client, name string) (models.Log, error) {
			return c.PauseContainer(ctx, name)
		}),
		TypeUnpauseContainer: run(func(ctx context.Context, c periphery.Client, name string) (models.Log, error) {
			return c.UnpauseContainer(ctx, name)
		}),
	}
}

// StopContainerHandler and RemoveContainerHandler need {signal, time} from
// the request, so they're built separately rather than through the run()
// closure above.
func StopContainerHandler(resolver PeripheryResolver) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		client, err := resolver.ClientFor(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		name, err := resolver.ContainerName(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		log, err := client.StopContainer(ctx, name, req.Signal, req.TimeSec)
		if err != nil {
			return err
		}
		return journal.AppendLog(ctx, u, log)
	}
}

func RemoveContainerHandler(resolver PeripheryResolver) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		client, err := resolver.ClientFor(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		name, err := resolver.ContainerName(ctx, req.Target.ID)
		if err != nil {
			return err
		}
		log, err := client.RemoveContainer(ctx, name, req.Signal, req.TimeSec)
		if err != nil {
			return err
		}
		return journal.AppendLog(ctx, u, log)
	}
}
