package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/raglab/log"
	"github.com/smallnest/raglab/rag"
	"github.com/smallnest/raglab/tool"
)

// ErrNoSearchResults is returned when the search provider finds nothing.
var ErrNoSearchResults = errors.New("search returned no results")

// PageFetcher downloads the readable text of a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*tool.Page, error)
}

// WebSource turns a query into documents: it searches the web, then fetches
// the top hits one by one. Pages that fail to load are skipped. When no page
// loads at all, the search snippets are used instead.
type WebSource struct {
	search   tool.SearchProvider
	fetcher  PageFetcher
	maxPages int
	logger   log.Logger
}

// WebSourceOption configures the WebSource
type WebSourceOption func(*WebSource)

// WithMaxPages limits how many hits are fetched.
func WithMaxPages(n int) WebSourceOption {
	return func(s *WebSource) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// WithLogger sets the logger used for skipped pages.
func WithLogger(logger log.Logger) WebSourceOption {
	return func(s *WebSource) {
		s.logger = logger
	}
}

// NewWebSource creates a WebSource fetching up to 3 pages per query.
func NewWebSource(search tool.SearchProvider, fetcher PageFetcher, opts ...WebSourceOption) *WebSource {
	s := &WebSource{
		search:   search,
		fetcher:  fetcher,
		maxPages: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.OrDefault(s.logger)
	return s
}

// Fetch implements rag.Source.
func (s *WebSource) Fetch(ctx context.Context, query string) ([]rag.Document, error) {
	hits, err := s.search.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s search failed: %w", s.search.Name(), err)
	}
	if len(hits) == 0 {
		return nil, ErrNoSearchResults
	}
	if len(hits) > s.maxPages {
		hits = hits[:s.maxPages]
	}

	var docs []rag.Document
	for rank, hit := range hits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := s.fetcher.Fetch(ctx, hit.URL)
		if err != nil {
			s.logger.Warn("skipping %s: %v", hit.URL, err)
			continue
		}

		title := page.Title
		if title == "" {
			title = hit.Title
		}
		docs = append(docs, rag.Document{
			ID:      rag.NewDocumentID(),
			Content: page.Content,
			Metadata: map[string]any{
				"source": hit.URL,
				"title":  title,
				"rank":   rank + 1,
				"type":   "web_page",
			},
		})
	}

	if len(docs) > 0 {
		return docs, nil
	}

	s.logger.Warn("no page could be fetched for %q, using search snippets", query)
	for rank, hit := range hits {
		snippet := hit.Snippet()
		if snippet == "" {
			continue
		}
		docs = append(docs, rag.Document{
			ID:      rag.NewDocumentID(),
			Content: snippet,
			Metadata: map[string]any{
				"source": hit.URL,
				"title":  hit.Title,
				"rank":   rank + 1,
				"type":   "search_snippet",
			},
		})
	}
	return docs, nil
}
