// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"loan-advisor/internal/models"
)

// snsAPI is the part of *sns.Client the publisher needs.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	client   snsAPI
	topicARN string
}

func NewSNSClient(ctx context.Context, region, topicARN string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SNSClient{client: sns.NewFromConfig(cfg), topicARN: topicARN}, nil
}

// PublishOutcome sends an eligibility outcome to the configured topic.
// The status is copied into a message attribute so subscribers can filter.
func (s *SNSClient) PublishOutcome(ctx context.Context, event models.OutcomeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(s.topicARN),
		Message:  awssdk.String(string(body)),
		Subject:  awssdk.String("Eligibility outcome"),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"status": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(event.Status),
			},
			"language": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(string(event.Language)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish to %s: %w", s.topicARN, err)
	}
	return nil
}
