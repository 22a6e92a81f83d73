package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/smallnest/raglab/rag"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PgVectorStore stores chunks in a Postgres table with a pgvector column and
// ranks them by cosine distance in the database.
type PgVectorStore struct {
	pool      DBPool
	tableName string
	dimension int
	embedder  rag.Embedder
}

// PgVectorOptions configuration for the Postgres connection
type PgVectorOptions struct {
	ConnString string
	TableName  string // Default "raglab_chunks"
	Dimension  int    // Length of the embedding column
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewPgVectorStore opens a connection pool
func NewPgVectorStore(ctx context.Context, opts PgVectorOptions, embedder rag.Embedder) (*PgVectorStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	s, err := NewPgVectorStoreWithPool(pool, opts.TableName, opts.Dimension, embedder)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPgVectorStoreWithPool creates a store over an existing pool
func NewPgVectorStoreWithPool(pool DBPool, tableName string, dimension int, embedder rag.Embedder) (*PgVectorStore, error) {
	if tableName == "" {
		tableName = "raglab_chunks"
	}
	if !tableNamePattern.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name %q", tableName)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	return &PgVectorStore{
		pool:      pool,
		tableName: tableName,
		dimension: dimension,
		embedder:  embedder,
	}, nil
}

// InitSchema creates the extension and table if they don't exist
func (s *PgVectorStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`, s.tableName, s.dimension)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Add stores documents, embedding those without an embedding.
func (s *PgVectorStore) Add(ctx context.Context, documents []rag.Document) error {
	embeddings, err := embedMissing(ctx, s.embedder, documents)
	if err != nil {
		return err
	}
	return s.AddBatch(ctx, documents, embeddings)
}

// AddBatch upserts documents with explicit embeddings in one transaction
func (s *PgVectorStore) AddBatch(ctx context.Context, documents []rag.Document, embeddings [][]float32) error {
	if len(documents) != len(embeddings) {
		return ErrLengthMismatch
	}
	if len(documents) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			updated_at = EXCLUDED.updated_at
	`, s.tableName)

	now := time.Now().UTC()
	for i, doc := range documents {
		if err := s.insert(ctx, tx, query, doc, embeddings[i], now); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	return nil
}

func (s *PgVectorStore) insert(ctx context.Context, tx pgx.Tx, query string, doc rag.Document, embedding []float32, now time.Time) error {
	if len(embedding) != s.dimension {
		return fmt.Errorf("document %s: embedding has %d dimensions, want %d", doc.ID, len(embedding), s.dimension)
	}
	id := doc.ID
	if id == "" {
		id = rag.NewDocumentID()
	}
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for %s: %w", id, err)
	}
	if _, err := tx.Exec(ctx, query, id, doc.Content, metadata, pgvector.NewVector(embedding), now); err != nil {
		return fmt.Errorf("failed to insert document %s: %w", id, err)
	}
	return nil
}

// Search returns the k documents most similar to the query embedding
func (s *PgVectorStore) Search(ctx context.Context, query []float32, k int) ([]rag.DocumentSearchResult, error) {
	return s.SearchWithFilter(ctx, query, k, nil)
}

// SearchWithFilter restricts the search to rows whose metadata contains filter
func (s *PgVectorStore) SearchWithFilter(ctx context.Context, query []float32, k int, filter map[string]any) ([]rag.DocumentSearchResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	args := []any{pgvector.NewVector(query), k}
	where := ""
	if len(filter) > 0 {
		data, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal filter: %w", err)
		}
		where = "WHERE metadata @> $3::jsonb"
		args = append(args, data)
	}

	sql := fmt.Sprintf(`
		SELECT id, content, metadata, embedding <=> $1 AS distance
		FROM %s
		%s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, s.tableName, where)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	results := make([]rag.DocumentSearchResult, 0, k)
	for rows.Next() {
		var doc rag.Document
		var metadata []byte
		var distance float64
		if err := rows.Scan(&doc.ID, &doc.Content, &metadata, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", doc.ID, err)
			}
		}
		results = append(results, rag.DocumentSearchResult{Document: doc, Score: 1 - distance})
	}
	return results, rows.Err()
}

// Delete removes documents by ID
func (s *PgVectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", s.tableName)
	if _, err := s.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// GetStats returns statistics about the vector store
func (s *PgVectorStore) GetStats(ctx context.Context) (*rag.VectorStoreStats, error) {
	query := fmt.Sprintf("SELECT count(*), max(updated_at) FROM %s", s.tableName)

	var count int64
	var updated pgtype.Timestamptz
	if err := s.pool.QueryRow(ctx, query).Scan(&count, &updated); err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}

	stats := &rag.VectorStoreStats{
		TotalDocuments: int(count),
		TotalVectors:   int(count),
		Dimension:      s.dimension,
	}
	if updated.Valid {
		stats.LastUpdated = updated.Time
	}
	return stats, nil
}

// Close closes the pool
func (s *PgVectorStore) Close() error {
	s.pool.Close()
	return nil
}
