package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorizeBias(t *testing.T) {
	tests := []struct {
		bias float64
		want BiasCategory
	}{
		{-3, BiasLeft},
		{-1.01, BiasLeft},
		{-1, BiasCenter},
		{0, BiasCenter},
		{1, BiasCenter},
		{1.01, BiasRight},
		{2, BiasRight},
		{5, BiasRight},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategorizeBias(tt.bias), "bias %v", tt.bias)
	}
}

func TestVerificationScoreRangeFollowsRank(t *testing.T) {
	ladder := []Verification{Verified, PartiallyVerified, Disputed, Unverified}
	for i := 1; i < len(ladder); i++ {
		strongerLo, _ := ladder[i-1].ScoreRange()
		_, weakerHi := ladder[i].ScoreRange()
		assert.GreaterOrEqual(t, strongerLo, weakerHi, "%s vs %s", ladder[i-1], ladder[i])
	}

	lo, hi := Unverified.ScoreRange()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.0, hi)
}

func TestVerificationRank(t *testing.T) {
	assert.Greater(t, Verified.Rank(), PartiallyVerified.Rank())
	assert.Greater(t, PartiallyVerified.Rank(), Disputed.Rank())
	assert.Greater(t, Disputed.Rank(), Unverified.Rank())
	assert.False(t, Verification("maybe").Valid())
	assert.True(t, Disputed.Valid())
}

func TestArticleInputNormalized(t *testing.T) {
	in := ArticleInput{Title: "  Title ", Content: "Body\n", URL: " https://example.com/a "}
	out := in.Normalized()

	assert.Equal(t, "Title", out.Title)
	assert.Equal(t, "Body", out.Content)
	assert.Equal(t, "https://example.com/a", out.URL)
	assert.Equal(t, DefaultSource, out.Source)
	assert.Equal(t, "  Title ", in.Title, "receiver must be untouched")
}
