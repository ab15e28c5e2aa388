// Package observe implements the pipeline's outbound side channels: the
// CloudWatch metrics sink and the SNS alert channel. Both are best-effort;
// callers log returned errors and never fail the batch on them.
package observe

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/sony/gobreaker/v2"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metric names published per invocation under the configured namespace.
const (
	MetricRecordsProcessed = "RecordsProcessed"
	MetricInvalidRecords   = "InvalidRecords"
	MetricDataQualityRate  = "DataQualityRate"
)

// BatchMetrics publishes the three batch-level observations to CloudWatch.
// Calls go through a circuit breaker: Lambda containers are reused across
// invocations, and a flapping metrics endpoint must not add its timeout to
// every batch.
type BatchMetrics struct {
	client    CloudWatchClient
	namespace string
	breaker   *gobreaker.CircuitBreaker[*cloudwatch.PutMetricDataOutput]
}

// NewBatchMetrics creates a BatchMetrics publishing to the given namespace.
func NewBatchMetrics(client CloudWatchClient, namespace string) *BatchMetrics {
	return &BatchMetrics{
		client:    client,
		namespace: namespace,
		breaker: gobreaker.NewCircuitBreaker[*cloudwatch.PutMetricDataOutput](gobreaker.Settings{
			Name:    "cloudwatch-metrics",
			Timeout: 30 * time.Second,
		}),
	}
}

// Publish emits RecordsProcessed (valid count), InvalidRecords and
// DataQualityRate in a single PutMetricData call. The returned error is
// informational; the caller logs it and continues.
func (m *BatchMetrics) Publish(ctx context.Context, validCount, invalidCount int, qualityRate float64) error {
	now := time.Now().UTC()
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricRecordsProcessed),
				Value:      aws.Float64(float64(validCount)),
				Unit:       cwtypes.StandardUnitCount,
				Timestamp:  aws.Time(now),
			},
			{
				MetricName: aws.String(MetricInvalidRecords),
				Value:      aws.Float64(float64(invalidCount)),
				Unit:       cwtypes.StandardUnitCount,
				Timestamp:  aws.Time(now),
			},
			{
				MetricName: aws.String(MetricDataQualityRate),
				Value:      aws.Float64(qualityRate),
				Unit:       cwtypes.StandardUnitPercent,
				Timestamp:  aws.Time(now),
			},
		},
	}

	_, err := m.breaker.Execute(func() (*cloudwatch.PutMetricDataOutput, error) {
		return m.client.PutMetricData(ctx, input)
	})
	return err
}
