package rag

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/smallnest/raglab/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/textsplitter"
)

// LangChainEmbedder adapts a langchaingo embeddings.Embedder to Embedder.
type LangChainEmbedder struct {
	embedder embeddings.Embedder

	mu        sync.Mutex
	dimension int
}

// NewLangChainEmbedder creates a new adapter for langchaingo embedders
func NewLangChainEmbedder(embedder embeddings.Embedder) *LangChainEmbedder {
	return &LangChainEmbedder{embedder: embedder}
}

// EmbedDocument embeds a single text
func (l *LangChainEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	embedding, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, WrapGenerationError(err)
	}
	out := toFloat32(embedding)
	l.remember(len(out))
	return out, nil
}

// EmbedDocuments embeds texts in one request
func (l *LangChainEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := l.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, WrapGenerationError(err)
	}

	result := make([][]float32, len(vectors))
	for i, v := range vectors {
		result[i] = toFloat32(v)
	}
	if len(result) > 0 {
		l.remember(len(result[0]))
	}
	return result, nil
}

// GetDimension returns the embedding length, probing the model once if no
// embedding has been produced yet. It returns 0 when the probe fails.
func (l *LangChainEmbedder) GetDimension() int {
	l.mu.Lock()
	dim := l.dimension
	l.mu.Unlock()
	if dim > 0 {
		return dim
	}

	probe, err := l.EmbedDocument(context.Background(), "dimension probe")
	if err != nil {
		log.Warn("embedding dimension probe failed: %v", err)
		return 0
	}
	return len(probe)
}

func (l *LangChainEmbedder) remember(dim int) {
	l.mu.Lock()
	if l.dimension == 0 {
		l.dimension = dim
	}
	l.mu.Unlock()
}

func toFloat32[T float32 | float64](in []T) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

// LangChainTextSplitter adapts a langchaingo textsplitter.TextSplitter to TextSplitter.
type LangChainTextSplitter struct {
	splitter textsplitter.TextSplitter
	logger   log.Logger
}

// NewLangChainTextSplitter creates a new adapter for langchaingo text splitters
func NewLangChainTextSplitter(splitter textsplitter.TextSplitter, logger log.Logger) *LangChainTextSplitter {
	return &LangChainTextSplitter{splitter: splitter, logger: log.OrDefault(logger)}
}

// SplitText splits text with the wrapped splitter. A splitter error yields no chunks.
func (l *LangChainTextSplitter) SplitText(text string) []string {
	chunks, err := l.splitter.SplitText(text)
	if err != nil {
		l.logger.Warn("text splitter failed: %v", err)
		return nil
	}
	return chunks
}

// SplitDocuments splits every document and records chunk metadata
func (l *LangChainTextSplitter) SplitDocuments(docs []Document) []Document {
	var result []Document
	for _, doc := range docs {
		chunks := l.SplitText(doc.Content)
		for i, chunk := range chunks {
			metadata := make(map[string]any, len(doc.Metadata)+3)
			maps.Copy(metadata, doc.Metadata)
			metadata["parent_id"] = doc.ID
			metadata["chunk_index"] = i
			metadata["chunk_total"] = len(chunks)

			result = append(result, Document{
				ID:        ChunkID(doc.ID, i),
				Content:   chunk,
				Metadata:  metadata,
				CreatedAt: doc.CreatedAt,
				UpdatedAt: doc.UpdatedAt,
			})
		}
	}
	return result
}

// JoinText joins chunks with newlines
func (l *LangChainTextSplitter) JoinText(chunks []string) string {
	return strings.Join(chunks, "\n")
}
