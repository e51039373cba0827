package reports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"reading-effort/internal/common/errors"
)

const sinkSNS = "sns"

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher posts the JSON report to a topic.
type SNSPublisher struct {
	client   SNSAPI
	topicARN string
}

func NewSNSPublisher(client SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

func (p *SNSPublisher) Publish(ctx context.Context, r *Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return errors.NewReportPublishFailedError(sinkSNS, err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(fmt.Sprintf("reading-effort %s report", r.Operation)),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"operation": {DataType: aws.String("String"), StringValue: aws.String(r.Operation)},
		},
	})
	if err != nil {
		return errors.NewReportPublishFailedError(sinkSNS, err)
	}
	return nil
}
