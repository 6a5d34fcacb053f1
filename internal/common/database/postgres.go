// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"news-trust-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pooled connection. It does not dial; call Ping.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// NewPostgresFromDB wraps an existing handle, e.g. one opened by sqlmock.
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// schemaStatements creates the tables the workers read and write. The
// articles and article_embeddings tables are normally owned by ingestion;
// creating them here keeps a fresh database usable.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id             TEXT PRIMARY KEY,
		title          TEXT NOT NULL,
		content        TEXT NOT NULL,
		source         TEXT NOT NULL DEFAULT 'Unknown',
		url            TEXT NOT NULL UNIQUE,
		published_date TIMESTAMPTZ,
		language       TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS article_analyses (
		url           TEXT PRIMARY KEY,
		analysis_id   UUID NOT NULL,
		article_id    TEXT,
		overall_bias  DOUBLE PRECISION NOT NULL,
		bias_category TEXT NOT NULL,
		verification  TEXT NOT NULL,
		trust_score   DOUBLE PRECISION NOT NULL,
		result        JSONB NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS article_embeddings (
		article_id TEXT PRIMARY KEY REFERENCES articles(id) ON DELETE CASCADE,
		embedding  JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS article_clusters (
		run_id     UUID NOT NULL,
		cluster_id INTEGER NOT NULL,
		article_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (article_id)
	)`,
}

// EnsureSchema applies the idempotent DDL in order.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
