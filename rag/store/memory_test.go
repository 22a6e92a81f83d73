package store

import (
	"context"
	"sync"
	"testing"

	"github.com/smallnest/raglab/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmbedder struct {
	dim   int
	calls int
}

func (m *mockEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	res := make([]float32, m.dim)
	for i := 0; i < m.dim; i++ {
		res[i] = 0.1
	}
	return res, nil
}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	res := make([][]float32, len(texts))
	for i := range texts {
		res[i], _ = m.EmbedDocument(ctx, texts[i])
	}
	return res, nil
}

func (m *mockEmbedder) GetDimension() int {
	return m.dim
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 0}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Zero(t, CosineSimilarity(nil, nil))
}

func TestInMemoryVectorStore(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbedder{dim: 3}
	s := NewInMemoryVectorStore(embedder)

	t.Run("Add and Search", func(t *testing.T) {
		docs := []rag.Document{
			{ID: "1", Content: "hello", Embedding: []float32{1, 0, 0}},
			{ID: "2", Content: "world", Embedding: []float32{0, 1, 0}},
		}
		require.NoError(t, s.Add(ctx, docs))
		assert.Zero(t, embedder.calls)

		results, err := s.Search(ctx, []float32{1, 0.1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "1", results[0].Document.ID)
		assert.Greater(t, results[0].Score, 0.9)
	})

	t.Run("Search with Filter", func(t *testing.T) {
		docs := []rag.Document{
			{ID: "3", Content: "filtered", Embedding: []float32{0, 0, 1}, Metadata: map[string]any{"type": "special"}},
		}
		require.NoError(t, s.Add(ctx, docs))

		results, err := s.SearchWithFilter(ctx, []float32{1, 0, 0}, 5, map[string]any{"type": "special"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "3", results[0].Document.ID)
	})

	t.Run("Embeds missing vectors in one batch", func(t *testing.T) {
		require.NoError(t, s.Add(ctx, []rag.Document{{ID: "4", Content: "a"}, {ID: "5", Content: "b"}}))
		assert.Equal(t, 1, embedder.calls)
	})

	t.Run("Upsert by ID", func(t *testing.T) {
		require.NoError(t, s.AddBatch(ctx, []rag.Document{{ID: "1", Content: "hello again"}}, [][]float32{{1, 0, 0}}))
		stats, err := s.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, stats.TotalDocuments)
		assert.Equal(t, 3, stats.Dimension)
		assert.False(t, stats.LastUpdated.IsZero())
	})

	t.Run("Invalid input", func(t *testing.T) {
		_, err := s.Search(ctx, []float32{1, 0, 0}, 0)
		assert.ErrorIs(t, err, ErrInvalidK)
		err = s.AddBatch(ctx, []rag.Document{{ID: "x"}}, nil)
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, []string{"1", "missing"}))
		for _, d := range s.Documents() {
			assert.NotEqual(t, "1", d.ID)
		}
		require.NoError(t, s.AddBatch(ctx, []rag.Document{{ID: "2", Content: "replaced"}}, [][]float32{{0, 1, 0}}))
		assert.Len(t, s.Documents(), 4)
	})

	t.Run("No embedder", func(t *testing.T) {
		bare := NewInMemoryVectorStore(nil)
		assert.Error(t, bare.Add(ctx, []rag.Document{{Content: "x"}}))
	})
}

func TestInMemoryVectorStore_TopKOrder(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryVectorStore(nil)

	docs := []rag.Document{{ID: "far"}, {ID: "near"}, {ID: "mid"}, {ID: "tie"}}
	embeddings := [][]float32{{0, 1}, {1, 0}, {1, 1}, {1, 1}}
	require.NoError(t, s.AddBatch(ctx, docs, embeddings))

	results, err := s.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "near", results[0].Document.ID)
	assert.Equal(t, "mid", results[1].Document.ID)
	assert.Equal(t, "tie", results[2].Document.ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}

	results, err = s.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 4)

	empty, err := NewInMemoryVectorStore(nil).Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInMemoryVectorStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryVectorStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddBatch(ctx, []rag.Document{{}}, [][]float32{{1, 0}})
			_, _ = s.Search(ctx, []float32{1, 0}, 2)
		}()
	}
	wg.Wait()

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalDocuments)
}
