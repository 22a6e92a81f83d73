package retriever

import (
	"context"
	"fmt"
	"sort"

	"github.com/smallnest/raglab/rag"
	"github.com/smallnest/raglab/rag/store"
)

const (
	SearchTypeSimilarity = "similarity"
	SearchTypeMMR        = "mmr"

	// mmrLambda balances relevance against redundancy in MMR selection.
	mmrLambda = 0.5
)

// VectorRetriever embeds the query with the indexing embedder and returns
// the nearest chunks from a vector store, best first.
type VectorRetriever struct {
	vectorStore rag.VectorStore
	embedder    rag.Embedder
	config      rag.RetrievalConfig
}

// NewVectorRetriever creates a new vector retriever
func NewVectorRetriever(vectorStore rag.VectorStore, embedder rag.Embedder, config rag.RetrievalConfig) *VectorRetriever {
	if config.K <= 0 {
		config.K = rag.DefaultK
	}
	if config.SearchType == "" {
		config.SearchType = SearchTypeSimilarity
	}

	return &VectorRetriever{
		vectorStore: vectorStore,
		embedder:    embedder,
		config:      config,
	}
}

// Retrieve returns the configured number of documents
func (r *VectorRetriever) Retrieve(ctx context.Context, query string) ([]rag.Document, error) {
	return r.RetrieveWithK(ctx, query, r.config.K)
}

// RetrieveWithK retrieves at most k documents
func (r *VectorRetriever) RetrieveWithK(ctx context.Context, query string, k int) ([]rag.Document, error) {
	config := r.config
	config.K = k
	results, err := r.RetrieveWithConfig(ctx, query, &config)
	if err != nil {
		return nil, err
	}

	docs := make([]rag.Document, len(results))
	for i, result := range results {
		docs[i] = result.Document
	}
	return docs, nil
}

// RetrieveWithConfig retrieves documents with custom configuration. The
// results are in descending score order and never exceed config.K.
func (r *VectorRetriever) RetrieveWithConfig(ctx context.Context, query string, config *rag.RetrievalConfig) ([]rag.DocumentSearchResult, error) {
	if config == nil {
		config = &r.config
	}
	k := config.K
	if k <= 0 {
		k = rag.DefaultK
	}

	queryEmbedding, err := r.embedder.EmbedDocument(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// MMR picks from a wider candidate pool.
	fetch := k
	if config.SearchType == SearchTypeMMR {
		fetch = k * 3
	}

	var results []rag.DocumentSearchResult
	if len(config.Filter) > 0 {
		results, err = r.vectorStore.SearchWithFilter(ctx, queryEmbedding, fetch, config.Filter)
	} else {
		results, err = r.vectorStore.Search(ctx, queryEmbedding, fetch)
	}
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	if config.ScoreThreshold > 0 {
		filtered := make([]rag.DocumentSearchResult, 0, len(results))
		for _, result := range results {
			if result.Score >= config.ScoreThreshold {
				filtered = append(filtered, result)
			}
		}
		results = filtered
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if config.SearchType == SearchTypeMMR {
		results = applyMMR(results, k)
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// applyMMR selects k results by Maximal Marginal Relevance and returns them
// in descending relevance order.
func applyMMR(results []rag.DocumentSearchResult, k int) []rag.DocumentSearchResult {
	if len(results) <= k {
		return results
	}

	selected := []rag.DocumentSearchResult{results[0]}
	candidates := append([]rag.DocumentSearchResult(nil), results[1:]...)

	for len(selected) < k && len(candidates) > 0 {
		bestIdx := 0
		bestScore := 0.0
		for i, candidate := range candidates {
			maxSimilarity := 0.0
			for _, s := range selected {
				maxSimilarity = max(maxSimilarity, similarity(candidate.Document, s.Document))
			}
			score := mmrLambda*candidate.Score - (1-mmrLambda)*maxSimilarity
			if i == 0 || score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		selected = append(selected, candidates[bestIdx])
		candidates = append(candidates[:bestIdx], candidates[bestIdx+1:]...)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Score > selected[j].Score
	})
	return selected
}

func similarity(a, b rag.Document) float64 {
	if len(a.Embedding) > 0 && len(b.Embedding) > 0 {
		return store.CosineSimilarity(a.Embedding, b.Embedding)
	}
	if a.Content == b.Content {
		return 1
	}
	return 0
}
