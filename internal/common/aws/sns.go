// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/models"
)

// SNSAPI is the subset of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(cfg), nil
}

// SNSReportPublisher posts the batch statistics as JSON to a topic.
type SNSReportPublisher struct {
	client   SNSAPI
	topicARN string
}

func NewSNSReportPublisher(client SNSAPI, topicARN string) *SNSReportPublisher {
	return &SNSReportPublisher{client: client, topicARN: topicARN}
}

type reportMessage struct {
	RunID      string                 `json:"runId"`
	Statistics models.BatchStatistics `json:"statistics"`
	Failures   []models.BatchFailure  `json:"failures,omitempty"`
	StartedAt  string                 `json:"startedAt"`
	FinishedAt string                 `json:"finishedAt"`
}

func (p *SNSReportPublisher) Publish(ctx context.Context, report *models.BatchReport) error {
	body, err := json.Marshal(reportMessage{
		RunID:      report.RunID,
		Statistics: report.Statistics,
		Failures:   report.Failures,
		StartedAt:  report.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
		FinishedAt: report.FinishedAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
	if err != nil {
		return apperrors.NewNotificationFailedError("sns", fmt.Errorf("encode report: %w", err))
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String("News analysis batch " + report.RunID),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"failed": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(fmt.Sprintf("%d", report.Statistics.Failed)),
			},
		},
	})
	if err != nil {
		return apperrors.NewNotificationFailedError("sns", err)
	}
	return nil
}
