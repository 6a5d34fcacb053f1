package getarticleanalysis

import "news-trust-workers/internal/models"

type Input struct {
	URL string `json:"url"`
}

// Output carries Found=false, not an error, when nothing is stored.
type Output struct {
	Found    bool                   `json:"found"`
	Analysis *models.AnalysisResult `json:"analysis,omitempty"`
}
