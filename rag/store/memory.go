package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/smallnest/raglab/rag"
)

// InMemoryVectorStore keeps documents and embeddings in process memory.
// It is safe for concurrent use.
type InMemoryVectorStore struct {
	mu          sync.RWMutex
	documents   []rag.Document
	embeddings  [][]float32
	index       map[string]int
	embedder    rag.Embedder
	lastUpdated time.Time
}

// NewInMemoryVectorStore creates a new InMemoryVectorStore. The embedder is
// only used by Add for documents that carry no embedding and may be nil.
func NewInMemoryVectorStore(embedder rag.Embedder) *InMemoryVectorStore {
	return &InMemoryVectorStore{
		index:    make(map[string]int),
		embedder: embedder,
	}
}

// Add stores documents, embedding those without an embedding.
func (s *InMemoryVectorStore) Add(ctx context.Context, documents []rag.Document) error {
	embeddings, err := embedMissing(ctx, s.embedder, documents)
	if err != nil {
		return err
	}
	return s.AddBatch(ctx, documents, embeddings)
}

// AddBatch stores documents with explicit embeddings. A document whose ID is
// already present replaces the stored one.
func (s *InMemoryVectorStore) AddBatch(ctx context.Context, documents []rag.Document, embeddings [][]float32) error {
	if len(documents) != len(embeddings) {
		return ErrLengthMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range documents {
		if doc.ID == "" {
			doc.ID = rag.NewDocumentID()
		}
		doc.Embedding = embeddings[i]
		if pos, ok := s.index[doc.ID]; ok {
			s.documents[pos] = doc
			s.embeddings[pos] = embeddings[i]
			continue
		}
		s.index[doc.ID] = len(s.documents)
		s.documents = append(s.documents, doc)
		s.embeddings = append(s.embeddings, embeddings[i])
	}
	s.lastUpdated = time.Now()
	return nil
}

// Search returns the k documents most similar to the query embedding
func (s *InMemoryVectorStore) Search(ctx context.Context, query []float32, k int) ([]rag.DocumentSearchResult, error) {
	return s.SearchWithFilter(ctx, query, k, nil)
}

// SearchWithFilter searches only documents whose metadata matches filter
func (s *InMemoryVectorStore) SearchWithFilter(ctx context.Context, query []float32, k int, filter map[string]any) ([]rag.DocumentSearchResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []rag.Document
	var embeddings [][]float32
	for i, doc := range s.documents {
		if matchesFilter(doc, filter) {
			docs = append(docs, doc)
			embeddings = append(embeddings, s.embeddings[i])
		}
	}

	return rankTopK(query, docs, embeddings, k), nil
}

// Delete removes documents by ID. Unknown IDs are ignored.
func (s *InMemoryVectorStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	docs := s.documents[:0:0]
	embeddings := s.embeddings[:0:0]
	for i, doc := range s.documents {
		if !drop[doc.ID] {
			docs = append(docs, doc)
			embeddings = append(embeddings, s.embeddings[i])
		}
	}

	s.documents = docs
	s.embeddings = embeddings
	s.index = make(map[string]int, len(docs))
	for i, doc := range docs {
		s.index[doc.ID] = i
	}
	s.lastUpdated = time.Now()
	return nil
}

// GetStats returns statistics about the vector store
func (s *InMemoryVectorStore) GetStats(ctx context.Context) (*rag.VectorStoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &rag.VectorStoreStats{
		TotalDocuments: len(s.documents),
		TotalVectors:   len(s.embeddings),
		LastUpdated:    s.lastUpdated,
	}
	if len(s.embeddings) > 0 {
		stats.Dimension = len(s.embeddings[0])
	}
	return stats, nil
}

// Documents returns a copy of the stored documents in insertion order.
func (s *InMemoryVectorStore) Documents() []rag.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.documents)
}

// Close drops all stored data
func (s *InMemoryVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = nil
	s.embeddings = nil
	s.index = make(map[string]int)
	return nil
}

// embedMissing returns one embedding per document, computing those that are
// not already attached in a single batch.
func embedMissing(ctx context.Context, embedder rag.Embedder, documents []rag.Document) ([][]float32, error) {
	embeddings := make([][]float32, len(documents))
	var texts []string
	var positions []int
	for i, doc := range documents {
		if len(doc.Embedding) > 0 {
			embeddings[i] = doc.Embedding
			continue
		}
		texts = append(texts, doc.Content)
		positions = append(positions, i)
	}
	if len(texts) == 0 {
		return embeddings, nil
	}
	if embedder == nil {
		return nil, fmt.Errorf("no embedder configured and %d documents have no embedding", len(texts))
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, ErrLengthMismatch
	}
	for i, pos := range positions {
		embeddings[pos] = vectors[i]
	}
	return embeddings, nil
}
