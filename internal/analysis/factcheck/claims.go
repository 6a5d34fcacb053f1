package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"news-trust-workers/internal/clients/inference"
	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/common/validation"
	"news-trust-workers/internal/models"
)

var claimsSchema = validation.MustCompileSchema(validation.ClaimsSchema)

const claimsSystemPrompt = `You extract checkable factual claims from news articles. Return at most %d
short, self-contained claims that an independent source could confirm or refute. Respond with JSON only:
{"claims": ["<claim>", ...]}`

// extractClaims asks the model for claims and falls back to the headline
// heuristic when the model is unavailable, declines or returns junk.
func (c *Checker) extractClaims(ctx context.Context, article models.ArticleInput) []string {
	raw, err := c.inferencer.Infer(ctx, inference.Prompt{
		Task:   inference.TaskClaims,
		System: fmt.Sprintf(claimsSystemPrompt, c.maxClaims),
		User:   ClaimsPrompt(article, c.maxContentChars),
	})
	if err != nil {
		c.logger.Warn("claim extraction unavailable, using headline claims", map[string]interface{}{
			"url":   article.URL,
			"error": err.Error(),
		})
		return HeadlineClaims(article, c.maxClaims)
	}

	claims, err := parseClaims(raw, c.maxClaims)
	if err != nil || len(claims) == 0 {
		fields := map[string]interface{}{"url": article.URL, "rawResponse": apperrors.Excerpt(raw, 256)}
		if err != nil {
			fields["error"] = err.Error()
		}
		c.logger.Warn("claim extraction returned nothing usable, using headline claims", fields)
		return HeadlineClaims(article, c.maxClaims)
	}
	return claims
}

func ClaimsPrompt(article models.ArticleInput, maxContentChars int) string {
	return "Title: " + article.Title + "\n" + article.LanguageHint() + "\n\n" + truncate(article.Content, maxContentChars)
}

func parseClaims(raw string, max int) ([]string, error) {
	doc, err := validation.ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	if err := claimsSchema.Validate(doc); err != nil {
		return nil, err
	}
	var out struct {
		Claims []string `json:"claims"`
	}
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, err
	}
	return dedupeClaims(out.Claims, max), nil
}

// HeadlineClaims treats the title, and the lead sentence when it says
// something else, as the article's claims.
func HeadlineClaims(article models.ArticleInput, max int) []string {
	return dedupeClaims([]string{article.Title, firstSentence(article.Content)}, max)
}

func dedupeClaims(claims []string, max int) []string {
	seen := make(map[string]bool, len(claims))
	out := make([]string, 0, len(claims))
	for _, claim := range claims {
		claim = strings.TrimSpace(claim)
		key := strings.ToLower(strings.TrimRightFunc(claim, unicode.IsPunct))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, claim)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func firstSentence(content string) string {
	content = strings.TrimSpace(content)
	for i, r := range content {
		switch r {
		case '\n':
			return strings.TrimSpace(content[:i])
		case '.', '!', '?':
			next := i + 1
			if next == len(content) || content[next] == ' ' || content[next] == '\n' {
				return strings.TrimSpace(content[:next])
			}
		}
	}
	return content
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
