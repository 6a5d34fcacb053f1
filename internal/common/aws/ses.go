// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/models"
)

type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func NewSESClient(ctx context.Context, region string) (*ses.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return ses.NewFromConfig(cfg), nil
}

// SESReportPublisher emails a plain-text batch report.
type SESReportPublisher struct {
	client     SESAPI
	from       string
	recipients []string
}

func NewSESReportPublisher(client SESAPI, from string, recipients []string) *SESReportPublisher {
	return &SESReportPublisher{client: client, from: from, recipients: recipients}
}

func (p *SESReportPublisher) Publish(ctx context.Context, report *models.BatchReport) error {
	if len(p.recipients) == 0 {
		return nil
	}

	_, err := p.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(p.from),
		Destination: &types.Destination{ToAddresses: p.recipients},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String("News analysis batch " + report.RunID)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(FormatReport(report))},
			},
		},
	})
	if err != nil {
		return apperrors.NewNotificationFailedError("email", err)
	}
	return nil
}

// FormatReport renders a batch report as plain text with stable ordering.
func FormatReport(report *models.BatchReport) string {
	s := report.Statistics
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", report.RunID)
	fmt.Fprintf(&b, "Analyzed: %d\nFailed: %d\nMean trust score: %.2f\n", s.Analyzed, s.Failed, s.MeanTrustScore)

	if len(s.ByVerification) > 0 {
		b.WriteString("\nVerification:\n")
		keys := make([]string, 0, len(s.ByVerification))
		for k := range s.ByVerification {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %d\n", k, s.ByVerification[models.Verification(k)])
		}
	}

	if len(s.ByBiasCategory) > 0 {
		b.WriteString("\nBias:\n")
		keys := make([]string, 0, len(s.ByBiasCategory))
		for k := range s.ByBiasCategory {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %d\n", k, s.ByBiasCategory[models.BiasCategory(k)])
		}
	}

	if len(report.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, f := range report.Failures {
			fmt.Fprintf(&b, "  %s [%s] %s\n", f.URL, f.Code, f.Reason)
		}
	}
	return b.String()
}
