// internal/models/article.go
package models

import (
	"strings"
	"time"
)

const DefaultSource = "Unknown"

// ArticleInput is a raw article as handed to the pipeline. URL is the
// article's identity for caching and deduplication.
type ArticleInput struct {
	ID            string     `json:"id,omitempty"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Source        string     `json:"source,omitempty"`
	URL           string     `json:"url"`
	PublishedDate *time.Time `json:"publishedDate,omitempty"`
	Language      string     `json:"language,omitempty"`
}

// LanguageHint is the prompt line telling the model which language the
// article is in. Answers are always requested in English.
func (a ArticleInput) LanguageHint() string {
	if lang := strings.TrimSpace(a.Language); lang != "" {
		return "Article language: " + lang + ". Answer in English."
	}
	return "Article language not given: detect it and answer in English."
}

// Normalized returns a trimmed copy with Source defaulted.
func (a ArticleInput) Normalized() ArticleInput {
	out := a
	out.ID = strings.TrimSpace(a.ID)
	out.Title = strings.TrimSpace(a.Title)
	out.Content = strings.TrimSpace(a.Content)
	out.Source = strings.TrimSpace(a.Source)
	out.URL = strings.TrimSpace(a.URL)
	out.Language = strings.TrimSpace(a.Language)
	if out.Source == "" {
		out.Source = DefaultSource
	}
	return out
}
