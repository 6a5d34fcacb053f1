// Package articles reads the ingested article corpus and records clustering
// output.
package articles

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	apperrors "news-trust-workers/internal/common/errors"
	"news-trust-workers/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectUnanalyzedQuery = `SELECT a.id, a.title, a.content, a.source, a.url, a.published_date, a.language
FROM articles a
LEFT JOIN article_analyses an ON an.url = a.url
WHERE an.url IS NULL
	AND btrim(a.content) <> ''
	AND btrim(a.title) <> ''
	AND a.url ~* '^https?://[^/]+'
ORDER BY a.published_date DESC NULLS LAST, a.id DESC
LIMIT $1`

// SelectUnanalyzed returns up to limit articles with no stored analysis,
// newest first. Rows that can never pass article validation are skipped so
// they cannot fill every batch.
func (s *Store) SelectUnanalyzed(ctx context.Context, limit int) ([]models.ArticleInput, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, selectUnanalyzedQuery, limit)
	if err != nil {
		return nil, apperrors.NewArticleSelectionError(err)
	}
	defer rows.Close()

	var out []models.ArticleInput
	for rows.Next() {
		var (
			a         models.ArticleInput
			source    sql.NullString
			published sql.NullTime
			language  sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &source, &a.URL, &published, &language); err != nil {
			return nil, apperrors.NewArticleSelectionError(fmt.Errorf("scan article: %w", err))
		}
		a.Source = source.String
		a.Language = language.String
		if published.Valid {
			t := published.Time
			a.PublishedDate = &t
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewArticleSelectionError(err)
	}
	return out, nil
}

const listEmbeddingsQuery = `SELECT e.article_id, e.embedding
FROM article_embeddings e
JOIN articles a ON a.id = e.article_id
WHERE a.published_date >= $1
ORDER BY e.article_id`

// ListEmbeddings returns embeddings of articles published at or after since.
func (s *Store) ListEmbeddings(ctx context.Context, since time.Time) ([]models.Embedding, error) {
	rows, err := s.db.QueryContext(ctx, listEmbeddingsQuery, since)
	if err != nil {
		return nil, apperrors.NewStorageError("list embeddings", err)
	}
	defer rows.Close()

	var out []models.Embedding
	for rows.Next() {
		var (
			e   models.Embedding
			raw []byte
		)
		if err := rows.Scan(&e.ID, &raw); err != nil {
			return nil, apperrors.NewStorageError("list embeddings", err)
		}
		if err := json.Unmarshal(raw, &e.Embedding); err != nil {
			return nil, apperrors.NewStorageError("list embeddings", fmt.Errorf("decode embedding for %s: %w", e.ID, err))
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list embeddings", err)
	}
	return out, nil
}

const upsertClusterQuery = `INSERT INTO article_clusters (run_id, cluster_id, article_id, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (article_id) DO UPDATE SET
	run_id = EXCLUDED.run_id,
	cluster_id = EXCLUDED.cluster_id,
	created_at = EXCLUDED.created_at`

const deleteUnclusteredQuery = `DELETE FROM article_clusters WHERE article_id = ANY($1)`

// SaveClusterAssignments records each article's cluster for runID in one
// transaction. An article keeps only its latest assignment; articleIDs that
// the run left as noise lose any earlier one.
func (s *Store) SaveClusterAssignments(ctx context.Context, runID string, articleIDs []string, assignment *models.ClusterAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("save clusters", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if noise := unassigned(articleIDs, assignment); len(noise) > 0 {
		if _, err := tx.ExecContext(ctx, deleteUnclusteredQuery, pq.Array(noise)); err != nil {
			return apperrors.NewStorageError("save clusters", fmt.Errorf("clear noise: %w", err))
		}
	}

	stmt, err := tx.PrepareContext(ctx, upsertClusterQuery)
	if err != nil {
		return apperrors.NewStorageError("save clusters", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range assignment.Clusters {
		for _, articleID := range c.EventIDs {
			if _, err := stmt.ExecContext(ctx, runID, c.ClusterID, articleID, now); err != nil {
				return apperrors.NewStorageError("save clusters", fmt.Errorf("article %s: %w", articleID, err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("save clusters", err)
	}
	return nil
}

func unassigned(articleIDs []string, assignment *models.ClusterAssignment) []string {
	assigned := make(map[string]struct{})
	for _, c := range assignment.Clusters {
		for _, id := range c.EventIDs {
			assigned[id] = struct{}{}
		}
	}
	var out []string
	for _, id := range articleIDs {
		if _, ok := assigned[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
