// Package store holds the vector index implementations: an in-process store,
// a Redis-backed store and a Postgres store on the pgvector extension.
package store

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/smallnest/raglab/rag"
)

var (
	// ErrInvalidK is returned by searches with a non-positive k.
	ErrInvalidK = errors.New("k must be positive")

	// ErrLengthMismatch is returned when documents and embeddings differ in count.
	ErrLengthMismatch = errors.New("documents and embeddings must have same length")
)

// CosineSimilarity returns the cosine of the angle between a and b. Vectors of
// different length or zero norm score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// matchesFilter reports whether every filter key is present in the metadata
// with an equal value.
func matchesFilter(doc rag.Document, filter map[string]any) bool {
	for key, value := range filter {
		docValue, exists := doc.Metadata[key]
		if !exists || fmt.Sprint(docValue) != fmt.Sprint(value) {
			return false
		}
	}
	return true
}

// rankTopK scores every candidate against query and keeps the k best.
// Ties keep insertion order.
func rankTopK(query []float32, docs []rag.Document, embeddings [][]float32, k int) []rag.DocumentSearchResult {
	results := make([]rag.DocumentSearchResult, len(docs))
	for i, doc := range docs {
		results[i] = rag.DocumentSearchResult{
			Document: doc,
			Score:    CosineSimilarity(query, embeddings[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}
