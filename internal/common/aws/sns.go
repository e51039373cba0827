// Package aws builds AWS service clients from the default credential chain.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// NewSNSClient loads credentials for region and returns an SNS client. An
// empty region defers to AWS_REGION and the shared config.
func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sns.NewFromConfig(cfg), nil
}
