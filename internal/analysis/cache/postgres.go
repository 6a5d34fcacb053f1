package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"news-trust-workers/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const getAnalysisQuery = `SELECT result FROM article_analyses WHERE url = $1`

const upsertAnalysisQuery = `INSERT INTO article_analyses
	(url, analysis_id, article_id, overall_bias, bias_category, verification, trust_score, result, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (url) DO UPDATE SET
	analysis_id = EXCLUDED.analysis_id,
	article_id = EXCLUDED.article_id,
	overall_bias = EXCLUDED.overall_bias,
	bias_category = EXCLUDED.bias_category,
	verification = EXCLUDED.verification,
	trust_score = EXCLUDED.trust_score,
	result = EXCLUDED.result,
	created_at = EXCLUDED.created_at`

func (s *PostgresStore) Get(ctx context.Context, url string) (*models.AnalysisResult, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, getAnalysisQuery, url).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var r models.AnalysisResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode stored analysis for %s: %w", url, err)
	}
	return &r, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, result *models.AnalysisResult) error {
	raw, err := encode(result)
	if err != nil {
		return err
	}

	var articleID sql.NullString
	if result.ArticleID != "" {
		articleID = sql.NullString{String: result.ArticleID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, upsertAnalysisQuery,
		result.URL,
		result.ID,
		articleID,
		result.BiasAnalysis.OverallBias,
		string(result.BiasAnalysis.BiasCategory),
		string(result.FactCheckResult.OverallVerification),
		result.OverallTrustScore,
		raw,
		result.CreatedAt,
	)
	return err
}

// encode serializes result without its transient warnings.
func encode(result *models.AnalysisResult) ([]byte, error) {
	stored := *result
	stored.Warnings = nil
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}
	return raw, nil
}
