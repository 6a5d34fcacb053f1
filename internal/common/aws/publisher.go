package aws

import (
	"context"
	stderrors "errors"

	"news-trust-workers/internal/models"
)

type ReportPublisher interface {
	Publish(ctx context.Context, report *models.BatchReport) error
}

// MultiPublisher publishes to every channel and joins their errors.
type MultiPublisher []ReportPublisher

func (m MultiPublisher) Publish(ctx context.Context, report *models.BatchReport) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
