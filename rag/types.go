package rag

import (
	"context"
	"time"
)

// DefaultK is the number of chunks retrieved when nothing else is configured.
const DefaultK = 5

// Document is a unit of text flowing through a pipeline: a fetched page, a
// file, or a chunk of either.
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Source returns the value of the "source" metadata key, or "Unknown".
func (d Document) Source() string {
	if s, ok := d.Metadata["source"]; ok {
		if str, ok := s.(string); ok && str != "" {
			return str
		}
	}
	return "Unknown"
}

// DocumentSearchResult is a document with its similarity to the query.
type DocumentSearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// QueryResult is the outcome of one pipeline run.
type QueryResult struct {
	Query      string         `json:"query"`
	Answer     string         `json:"answer"`
	Sources    []Document     `json:"sources,omitempty"`
	Context    string         `json:"context,omitempty"`
	Citations  []string       `json:"citations,omitempty"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// RetrievalConfig tunes a single retrieval.
type RetrievalConfig struct {
	K              int            `json:"k"`
	ScoreThreshold float64        `json:"score_threshold"`
	SearchType     string         `json:"search_type"`
	Filter         map[string]any `json:"filter,omitempty"`
	IncludeScores  bool           `json:"include_scores"`
}

// VectorStoreStats describes the contents of a vector store.
type VectorStoreStats struct {
	TotalDocuments int       `json:"total_documents"`
	TotalVectors   int       `json:"total_vectors"`
	Dimension      int       `json:"dimension"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Source fetches the documents relevant to a query.
type Source interface {
	Fetch(ctx context.Context, query string) ([]Document, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, query string) ([]Document, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, query string) ([]Document, error) {
	return f(ctx, query)
}

// DocumentLoader loads a fixed document set.
type DocumentLoader interface {
	Load(ctx context.Context) ([]Document, error)
}

// LoaderSource turns a DocumentLoader into a Source that ignores the query.
func LoaderSource(loader DocumentLoader) Source {
	return SourceFunc(func(ctx context.Context, _ string) ([]Document, error) {
		return loader.Load(ctx)
	})
}

// TextSplitter splits documents into chunks.
type TextSplitter interface {
	SplitText(text string) []string
	SplitDocuments(documents []Document) []Document
	JoinText(chunks []string) string
}

// Embedder turns text into fixed-length vectors.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	GetDimension() int
}

// VectorStore indexes embedded documents for similarity search.
type VectorStore interface {
	Add(ctx context.Context, documents []Document) error
	AddBatch(ctx context.Context, documents []Document, embeddings [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]DocumentSearchResult, error)
	SearchWithFilter(ctx context.Context, query []float32, k int, filter map[string]any) ([]DocumentSearchResult, error)
	Delete(ctx context.Context, ids []string) error
	GetStats(ctx context.Context) (*VectorStoreStats, error)
}

// Retriever returns the documents most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
	RetrieveWithK(ctx context.Context, query string, k int) ([]Document, error)
	RetrieveWithConfig(ctx context.Context, query string, config *RetrievalConfig) ([]DocumentSearchResult, error)
}
