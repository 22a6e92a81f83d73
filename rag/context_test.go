package rag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildContext(t *testing.T) {
	results := []DocumentSearchResult{
		{Document: Document{Content: "first", Metadata: map[string]any{"source": "a.txt", "title": "A"}}, Score: 0.9},
		{Document: Document{Content: "second"}, Score: 0.5},
	}

	got := BuildContext(results, false)
	assert.Equal(t, "[1] Source: a.txt\nTitle: A\nContent: first\n\n[2] Source: Unknown\nContent: second", got)

	got = BuildContext(results, true)
	assert.Contains(t, got, "Score: 0.9000\n")
	assert.Contains(t, got, "Score: 0.5000\n")

	assert.Empty(t, BuildContext(nil, true))
}

func TestBuildPrompt(t *testing.T) {
	assert.Equal(t, "Context:\nctx\n\nQuestion: why?\n\nAnswer:", BuildPrompt("ctx", "why?"))
}

func TestCitationsAndConfidence(t *testing.T) {
	docs := []Document{
		{Metadata: map[string]any{"source": "https://go.dev"}},
		{},
	}
	assert.Equal(t, []string{"[1] https://go.dev", "[2] Unknown"}, Citations(docs))

	assert.Zero(t, Confidence(nil))
	assert.InDelta(t, 0.5, Confidence([]DocumentSearchResult{{Score: 0.8}, {Score: -0.2}}), 1e-9)
}

func TestServiceUnavailable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("status code: 503"), true},
		{errors.New("error, status code: 503, message: overloaded"), true},
		{errors.New("Service Unavailable"), true},
		{errors.New("status code: 500"), false},
		{errors.New("status code: 5030"), false},
		{fmt.Errorf("wrapped: %w", ErrServiceUnavailable), true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsServiceUnavailable(tt.err), "%v", tt.err)
	}

	plain := errors.New("bad request")
	assert.Same(t, plain, WrapGenerationError(plain))
	assert.Nil(t, WrapGenerationError(nil))

	wrapped := WrapGenerationError(errors.New("status 503"))
	assert.ErrorIs(t, wrapped, ErrServiceUnavailable)
	assert.ErrorIs(t, WrapGenerationError(wrapped), ErrServiceUnavailable)
}

func TestIDs(t *testing.T) {
	assert.Equal(t, "doc_chunk_2", ChunkID("doc", 2))
	assert.Regexp(t, `^[0-9a-f-]{36}_chunk_0$`, ChunkID("", 0))

	docs := []Document{{ID: "keep"}, {}}
	EnsureIDs(docs)
	assert.Equal(t, "keep", docs[0].ID)
	assert.NotEmpty(t, docs[1].ID)
}
