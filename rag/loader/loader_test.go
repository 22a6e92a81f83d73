package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smallnest/raglab/log"
	"github.com/smallnest/raglab/rag"
	"github.com/smallnest/raglab/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDocumentLoader(t *testing.T) {
	ctx := context.Background()
	docs := []rag.Document{
		{ID: "1", Content: "static 1", Metadata: map[string]any{"source": "a"}},
		{ID: "2", Content: "static 2"},
	}

	loader := NewStaticDocumentLoader(docs)

	t.Run("Basic Load", func(t *testing.T) {
		loaded, err := loader.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 2)
		assert.Equal(t, "static 1", loaded[0].Content)
		assert.Equal(t, "a", loaded[0].Metadata["source"])
	})

	t.Run("Load with Metadata does not mutate", func(t *testing.T) {
		loaded, err := loader.LoadWithMetadata(ctx, map[string]any{"extra": "meta"})
		require.NoError(t, err)
		assert.Equal(t, "meta", loaded[1].Metadata["extra"])
		assert.NotContains(t, docs[0].Metadata, "extra")
	})

	t.Run("As source", func(t *testing.T) {
		loaded, err := rag.LoaderSource(loader).Fetch(ctx, "ignored")
		require.NoError(t, err)
		assert.Len(t, loaded, 2)
	})
}

func TestTextLoader(t *testing.T) {
	ctx := context.Background()
	content := "Para 1 line 1\nline 2\n\nPara 2\n\n  \n\nPara 3"
	tmpFile := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	t.Run("Basic Load", func(t *testing.T) {
		docs, err := NewTextLoader(tmpFile, WithMetadata(map[string]any{"author": "test"})).Load(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, content, docs[0].Content)
		assert.Equal(t, tmpFile, docs[0].Source())
		assert.Equal(t, "notes.txt", docs[0].Metadata["title"])
		assert.Equal(t, "test", docs[0].Metadata["author"])
	})

	t.Run("Paragraphs", func(t *testing.T) {
		docs, err := NewTextLoader(tmpFile, WithParagraphs("\n\n")).Load(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "Para 1 line 1\nline 2", docs[0].Content)
		assert.Equal(t, "Para 3", docs[2].Content)
		assert.Equal(t, 3, docs[2].Metadata["paragraph_number"])
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := NewTextLoader(filepath.Join(t.TempDir(), "missing.txt")).Load(ctx)
		assert.ErrorContains(t, err, "failed to read file")
	})
}

type stubSearch struct {
	results []tool.SearchResult
	err     error
}

func (s *stubSearch) Name() string { return "stub" }

func (s *stubSearch) Search(ctx context.Context, query string) ([]tool.SearchResult, error) {
	return s.results, s.err
}

type stubFetcher struct {
	pages   map[string]*tool.Page
	fetched []string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (*tool.Page, error) {
	f.fetched = append(f.fetched, url)
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, errors.New("failed to fetch URL: status code 403")
}

func TestWebSource(t *testing.T) {
	ctx := context.Background()
	hits := []tool.SearchResult{
		{Title: "One", URL: "https://one.example", Description: "first snippet"},
		{Title: "Two", URL: "https://two.example", Description: "second snippet"},
		{Title: "Three", URL: "https://three.example", Description: "third snippet"},
		{Title: "Four", URL: "https://four.example"},
	}

	t.Run("Fetches pages and skips failures", func(t *testing.T) {
		fetcher := &stubFetcher{pages: map[string]*tool.Page{
			"https://one.example":   {URL: "https://one.example", Title: "Page One", Content: "one body"},
			"https://three.example": {URL: "https://three.example", Content: "three body"},
		}}
		src := NewWebSource(&stubSearch{results: hits}, fetcher, WithMaxPages(3), WithLogger(&log.NoOpLogger{}))

		docs, err := src.Fetch(ctx, "q")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "one body", docs[0].Content)
		assert.Equal(t, "Page One", docs[0].Metadata["title"])
		assert.Equal(t, "https://three.example", docs[1].Source())
		assert.Equal(t, "Three", docs[1].Metadata["title"])
		assert.Equal(t, 3, docs[1].Metadata["rank"])
		assert.Len(t, fetcher.fetched, 3)
	})

	t.Run("Falls back to snippets", func(t *testing.T) {
		src := NewWebSource(&stubSearch{results: hits}, &stubFetcher{}, WithMaxPages(10), WithLogger(&log.NoOpLogger{}))
		docs, err := src.Fetch(ctx, "q")
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "first snippet", docs[0].Content)
		assert.Equal(t, "search_snippet", docs[0].Metadata["type"])
	})

	t.Run("No results", func(t *testing.T) {
		src := NewWebSource(&stubSearch{}, &stubFetcher{})
		_, err := src.Fetch(ctx, "q")
		assert.ErrorIs(t, err, ErrNoSearchResults)
	})

	t.Run("Search error", func(t *testing.T) {
		boom := errors.New("boom")
		src := NewWebSource(&stubSearch{err: boom}, &stubFetcher{})
		_, err := src.Fetch(ctx, "q")
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "stub search failed")
	})
}
