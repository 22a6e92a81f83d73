package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/textsplitter"
)

type mockLCEmbedder struct {
	calls int
	err   error
}

func (m *mockLCEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	res := make([][]float32, len(texts))
	for i := range texts {
		res[i] = []float32{0.1, 0.2, 0.3}
	}
	return res, nil
}

func (m *mockLCEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type failingSplitter struct{}

func (failingSplitter) SplitText(string) ([]string, error) { return nil, errors.New("split error") }

func TestLangChainEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds and caches dimension", func(t *testing.T) {
		lc := &mockLCEmbedder{}
		adapter := NewLangChainEmbedder(lc)

		embs, err := adapter.EmbedDocuments(ctx, []string{"a", "b"})
		require.NoError(t, err)
		assert.Len(t, embs, 2)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, embs[1])

		calls := lc.calls
		assert.Equal(t, 3, adapter.GetDimension())
		assert.Equal(t, calls, lc.calls)
	})

	t.Run("probes dimension", func(t *testing.T) {
		lc := &mockLCEmbedder{}
		adapter := NewLangChainEmbedder(lc)
		assert.Equal(t, 3, adapter.GetDimension())
		assert.Equal(t, 1, lc.calls)
	})

	t.Run("maps 503", func(t *testing.T) {
		adapter := NewLangChainEmbedder(&mockLCEmbedder{err: errors.New("status code: 503")})
		_, err := adapter.EmbedDocument(ctx, "x")
		assert.ErrorIs(t, err, ErrServiceUnavailable)
		assert.Zero(t, adapter.GetDimension())
	})
}

func TestLangChainTextSplitter(t *testing.T) {
	lc := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(10),
		textsplitter.WithChunkOverlap(0),
	)
	adapter := NewLangChainTextSplitter(lc, nil)

	docs := adapter.SplitDocuments([]Document{{
		ID:       "p",
		Content:  "para one\n\npara two",
		Metadata: map[string]any{"source": "s"},
	}})
	require.Len(t, docs, 2)
	assert.Equal(t, "p_chunk_0", docs[0].ID)
	assert.Equal(t, "p", docs[1].Metadata["parent_id"])
	assert.Equal(t, 1, docs[1].Metadata["chunk_index"])
	assert.Equal(t, 2, docs[1].Metadata["chunk_total"])
	assert.Equal(t, "s", docs[1].Metadata["source"])

	assert.Equal(t, "a\nb", adapter.JoinText([]string{"a", "b"}))

	failing := NewLangChainTextSplitter(failingSplitter{}, nil)
	assert.Nil(t, failing.SplitText("anything"))
	assert.Empty(t, failing.SplitDocuments([]Document{{Content: "x"}}))
}
