package analyzearticle

import (
	"time"

	"news-trust-workers/internal/models"
)

type Input struct {
	ArticleID     string     `json:"articleId,omitempty"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Source        string     `json:"source,omitempty"`
	URL           string     `json:"url"`
	PublishedDate *time.Time `json:"publishedDate,omitempty"`
	Language      string     `json:"language,omitempty"`
}

func (in Input) Article() models.ArticleInput {
	return models.ArticleInput{
		ID:            in.ArticleID,
		Title:         in.Title,
		Content:       in.Content,
		Source:        in.Source,
		URL:           in.URL,
		PublishedDate: in.PublishedDate,
		Language:      in.Language,
	}
}

type Output struct {
	Analysis   *models.AnalysisResult `json:"analysis"`
	TrustScore float64                `json:"trustScore"`
	CacheHit   bool                   `json:"cacheHit"`
	Degraded   bool                   `json:"degraded"`
}
