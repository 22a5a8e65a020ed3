package state

import (
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/komodo-run/komodo-core/pkg/cloud"
	"github.com/komodo-run/komodo-core/pkg/config"
)

// resolveSecret mirrors PeripheryFactory.passkey: a resource's own env var
// wins when set, otherwise the global webhook secret applies.
func resolveSecret(envVar, global string) string {
	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
	}
	return global
}

// newAWSProvisioner builds an EC2 client from static credentials rather
// than the ambient credential chain, since cfg.AWS is the only source of
// truth for which account builds launch into.
func newAWSProvisioner(cfg config.AWSConfig) *cloud.AWSProvisioner {
	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	return cloud.NewAWSProvisioner(ec2.NewFromConfig(awsCfg))
}
