package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// EC2API is the subset of the generated EC2 client the provisioner needs,
// so tests can supply a fake without standing up real AWS credentials.
type EC2API interface {
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
}

// AWSProvisioner launches and terminates EC2 instances as ephemeral Build
// runners.
type AWSProvisioner struct {
	Client     EC2API
	PollEvery  time.Duration
	MaxPolls   int
}

func NewAWSProvisioner(client EC2API) *AWSProvisioner {
	return &AWSProvisioner{Client: client, PollEvery: 2 * time.Second, MaxPolls: 30}
}

func (p *AWSProvisioner) Launch(ctx context.Context, name string, cfg LaunchConfig) (Instance, error) {
	out, err := p.Client.RunInstances(ctx, &ec2.RunInstancesInput{
		ImageId:      aws.String(cfg.AMI),
		InstanceType: types.InstanceType(cfg.InstanceType),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		SubnetId:     aws.String(cfg.SubnetID),
		KeyName:      aws.String(cfg.KeyPairName),
		TagSpecifications: []types.TagSpecification{{
			ResourceType: types.ResourceTypeInstance,
			Tags:         []types.Tag{{Key: aws.String("Name"), Value: aws.String(name)}},
		}},
	})
	if err != nil {
		return Instance{}, fmt.Errorf("aws: RunInstances: %w", err)
	}
	if len(out.Instances) == 0 {
		return Instance{}, fmt.Errorf("aws: RunInstances returned no instances")
	}
	instanceID := aws.ToString(out.Instances[0].InstanceId)

	ip, err := p.pollUntilRunning(ctx, instanceID)
	if err != nil {
		return Instance{}, err
	}
	return Instance{InstanceID: instanceID, IP: ip}, nil
}

func (p *AWSProvisioner) pollUntilRunning(ctx context.Context, instanceID string) (string, error) {
	for i := 0; i < p.MaxPolls; i++ {
		out, err := p.Client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}})
		if err == nil && len(out.Reservations) > 0 && len(out.Reservations[0].Instances) > 0 {
			inst := out.Reservations[0].Instances[0]
			if inst.State != nil && inst.State.Name == types.InstanceStateNameRunning {
				return aws.ToString(inst.PublicIpAddress), nil
			}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.PollEvery):
		}
	}
	return "", fmt.Errorf("aws: instance %s did not reach Running after %d polls", instanceID, p.MaxPolls)
}

func (p *AWSProvisioner) Terminate(ctx context.Context, _ string, instanceID string) error {
	_, err := p.Client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{instanceID}})
	if err != nil {
		return fmt.Errorf("aws: TerminateInstances: %w", err)
	}
	return nil
}
