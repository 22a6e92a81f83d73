package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/raglab/rag"
)

// RedisVectorStore stores each document as JSON under <prefix>doc:<id> and
// keeps the set of IDs under <prefix>ids. Search ranks all stored vectors by
// cosine similarity on the client.
type RedisVectorStore struct {
	client   redis.UniversalClient
	prefix   string
	ttl      time.Duration
	embedder rag.Embedder
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "raglab:"
	TTL      time.Duration // Expiration for documents, default 0 (no expiration)
}

// NewRedisVectorStore connects to Redis. The embedder fills in missing
// embeddings on Add and may be nil.
func NewRedisVectorStore(opts RedisOptions, embedder rag.Embedder) *RedisVectorStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisVectorStoreWithClient(client, opts.Prefix, opts.TTL, embedder)
}

// NewRedisVectorStoreWithClient wraps an existing client.
func NewRedisVectorStoreWithClient(client redis.UniversalClient, prefix string, ttl time.Duration, embedder rag.Embedder) *RedisVectorStore {
	if prefix == "" {
		prefix = "raglab:"
	}
	return &RedisVectorStore{
		client:   client,
		prefix:   prefix,
		ttl:      ttl,
		embedder: embedder,
	}
}

func (s *RedisVectorStore) docKey(id string) string {
	return fmt.Sprintf("%sdoc:%s", s.prefix, id)
}

func (s *RedisVectorStore) idsKey() string {
	return s.prefix + "ids"
}

func (s *RedisVectorStore) updatedKey() string {
	return s.prefix + "updated"
}

// Ping checks the connection.
func (s *RedisVectorStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Add stores documents, embedding those without an embedding.
func (s *RedisVectorStore) Add(ctx context.Context, documents []rag.Document) error {
	embeddings, err := embedMissing(ctx, s.embedder, documents)
	if err != nil {
		return err
	}
	return s.AddBatch(ctx, documents, embeddings)
}

// AddBatch stores documents with explicit embeddings in one pipeline
func (s *RedisVectorStore) AddBatch(ctx context.Context, documents []rag.Document, embeddings [][]float32) error {
	if len(documents) != len(embeddings) {
		return ErrLengthMismatch
	}
	if len(documents) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for i, doc := range documents {
		if doc.ID == "" {
			doc.ID = rag.NewDocumentID()
		}
		doc.Embedding = embeddings[i]

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document %s: %w", doc.ID, err)
		}
		pipe.Set(ctx, s.docKey(doc.ID), data, s.ttl)
		pipe.SAdd(ctx, s.idsKey(), doc.ID)
	}
	pipe.Set(ctx, s.updatedKey(), time.Now().UTC().Format(time.RFC3339Nano), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save documents to redis: %w", err)
	}
	return nil
}

// Search returns the k documents most similar to the query embedding
func (s *RedisVectorStore) Search(ctx context.Context, query []float32, k int) ([]rag.DocumentSearchResult, error) {
	return s.SearchWithFilter(ctx, query, k, nil)
}

// SearchWithFilter searches only documents whose metadata matches filter
func (s *RedisVectorStore) SearchWithFilter(ctx context.Context, query []float32, k int, filter map[string]any) ([]rag.DocumentSearchResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var docs []rag.Document
	var embeddings [][]float32
	for _, doc := range all {
		if matchesFilter(doc, filter) {
			docs = append(docs, doc)
			embeddings = append(embeddings, doc.Embedding)
		}
	}
	return rankTopK(query, docs, embeddings, k), nil
}

// load fetches every indexed document. Expired keys are dropped from the ID set.
func (s *RedisVectorStore) load(ctx context.Context) ([]rag.Document, error) {
	ids, err := s.client.SMembers(ctx, s.idsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}

	var docs []rag.Document
	var stale []any
	for i, value := range values {
		str, ok := value.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var doc rag.Document
		if err := json.Unmarshal([]byte(str), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document %s: %w", ids[i], err)
		}
		docs = append(docs, doc)
	}

	if len(stale) > 0 {
		s.client.SRem(ctx, s.idsKey(), stale...)
	}
	return docs, nil
}

// Get loads one document by ID.
func (s *RedisVectorStore) Get(ctx context.Context, id string) (*rag.Document, error) {
	data, err := s.client.Get(ctx, s.docKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("document not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load document from redis: %w", err)
	}

	var doc rag.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

// Delete removes documents by ID
func (s *RedisVectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	members := make([]any, len(ids))
	for i, id := range ids {
		pipe.Del(ctx, s.docKey(id))
		members[i] = id
	}
	pipe.SRem(ctx, s.idsKey(), members...)
	pipe.Set(ctx, s.updatedKey(), time.Now().UTC().Format(time.RFC3339Nano), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// GetStats returns statistics about the vector store
func (s *RedisVectorStore) GetStats(ctx context.Context) (*rag.VectorStoreStats, error) {
	docs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	stats := &rag.VectorStoreStats{
		TotalDocuments: len(docs),
	}
	for _, doc := range docs {
		if len(doc.Embedding) > 0 {
			stats.TotalVectors++
			stats.Dimension = len(doc.Embedding)
		}
	}

	if updated, err := s.client.Get(ctx, s.updatedKey()).Result(); err == nil {
		stats.LastUpdated, _ = time.Parse(time.RFC3339Nano, updated)
	}
	return stats, nil
}

// Close closes the client.
func (s *RedisVectorStore) Close() error {
	return s.client.Close()
}
