package retrieval

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/zhouzirui/medibot/backend/internal/model/knowledge"
)

// PGVectorIndex searches the knowledge_passages table through the pgvector extension.
type PGVectorIndex struct {
	db *sql.DB
}

// NewPGVectorIndex uses an open Postgres connection.
func NewPGVectorIndex(db *sql.DB) *PGVectorIndex {
	return &PGVectorIndex{db: db}
}

// Search implements Searcher. Score is cosine similarity.
func (p *PGVectorIndex) Search(ctx context.Context, vector []float32, limit int) ([]knowledge.Passage, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, source, content, 1 - (embedding <=> $1) AS score
		FROM knowledge_passages
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(vector), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge_passages: %w", err)
	}
	defer rows.Close()

	var passages []knowledge.Passage
	for rows.Next() {
		var id, source, content string
		var score float64
		if err := rows.Scan(&id, &source, &content, &score); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		if source == "" {
			source = id
		}
		passages = append(passages, knowledge.Passage{Content: content, Score: score, SourceID: source})
	}
	return passages, rows.Err()
}

// Rebuild recreates knowledge_passages from entries. Only the offline indexer calls it.
func (p *PGVectorIndex) Rebuild(ctx context.Context, embedder Embedder, entries []knowledge.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("corpus is empty")
	}

	vectors := make([][]float32, len(entries))
	for i, entry := range entries {
		vector, err := embedder.Embed(ctx, entry.Content)
		if err != nil {
			return 0, fmt.Errorf("failed to embed %s: %w", entry.ID, err)
		}
		vectors[i] = vector
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`DROP TABLE IF EXISTS knowledge_passages`,
		fmt.Sprintf(`CREATE TABLE knowledge_passages (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, len(vectors[0])),
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to prepare knowledge_passages: %w", err)
		}
	}

	for i, entry := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO knowledge_passages (id, source, content, embedding) VALUES ($1, $2, $3, $4)`,
			entry.ID, entry.Source, entry.Content, pgvector.NewVector(vectors[i]),
		); err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit knowledge_passages: %w", err)
	}
	return len(entries), nil
}
