package observe

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSClient abstracts the SNS Publish operation for testability.
type SNSClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSAlertChannel delivers data-quality alerts to a configured SNS topic.
// An empty topic ARN disables alerting: Send becomes a no-op, not an error.
type SNSAlertChannel struct {
	client   SNSClient
	topicARN string
}

// NewSNSAlertChannel creates an alert channel for the given topic. The
// topic ARN may be empty to disable alerting.
func NewSNSAlertChannel(client SNSClient, topicARN string) *SNSAlertChannel {
	return &SNSAlertChannel{client: client, topicARN: topicARN}
}

// Enabled reports whether an alert destination is configured.
func (a *SNSAlertChannel) Enabled() bool {
	return a.topicARN != ""
}

// Send publishes a human-readable alert. The returned error is
// informational; the caller logs it and continues.
func (a *SNSAlertChannel) Send(ctx context.Context, subject, message string) error {
	if !a.Enabled() {
		return nil
	}
	_, err := a.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	return err
}
