package validation

import (
	"net/url"
	"strings"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/models"
)

// ValidateArticle checks the fields the pipeline cannot work without. The
// article should already be normalized.
func ValidateArticle(a models.ArticleInput) error {
	if strings.TrimSpace(a.URL) == "" {
		return apperrors.NewValidationError("url", "url is required")
	}
	if err := ValidateURL(a.URL); err != nil {
		return err
	}
	if strings.TrimSpace(a.Title) == "" {
		return apperrors.NewValidationError("title", "title is required")
	}
	if strings.TrimSpace(a.Content) == "" {
		return apperrors.NewValidationError("content", "content is required")
	}
	return nil
}

// ValidateURL requires an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return apperrors.NewValidationError("url", "url is malformed: "+err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperrors.NewValidationError("url", "url must use http or https")
	}
	if u.Host == "" {
		return apperrors.NewValidationError("url", "url must include a host")
	}
	return nil
}

// Host returns the lower-cased host of raw without a leading "www.", or ""
// when raw is not a URL.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
