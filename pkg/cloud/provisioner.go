// Package cloud implements the narrow cloud builder provisioner contract:
// launch(name, config) blocking until Running, and
// terminate(region/id) with bounded retries.
package cloud

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Instance is the handle returned by a successful Launch.
type Instance struct {
	InstanceID string
	IP         string
}

// Provisioner is implemented by the AWS and Hetzner backends.
type Provisioner interface {
	Launch(ctx context.Context, name string, cfg LaunchConfig) (Instance, error)
	Terminate(ctx context.Context, region, instanceID string) error
}

// LaunchConfig covers both AWS EC2 and Hetzner Cloud launch parameters;
// fields unused by a given backend are ignored.
type LaunchConfig struct {
	InstanceType string
	AMI          string
	ServerType   string
	Image        string
	Region       string
	Datacenter   string
	SubnetID     string
	KeyPairName  string
	VolumeGB     int
}

const terminateMaxRetries = 5
const terminateBackoff = 15 * time.Second

// TerminateWithRetry retries terminate up to 5 times with a fixed 15s
// backoff. The caller is responsible for emitting the
// {Aws|Hetzner}BuilderTerminationFailed alert if every retry fails.
func TerminateWithRetry(ctx context.Context, terminate func(context.Context) error) error {
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(terminateBackoff), terminateMaxRetries)
	return backoff.Retry(func() error {
		return terminate(ctx)
	}, backoff.WithContext(policy, ctx))
}
