package tool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnknownProvider is returned by NewSearchProvider for an unsupported name.
var ErrUnknownProvider = errors.New("unknown search provider")

const defaultUserAgent = "raglab/1.0 (+https://github.com/smallnest/raglab)"

// SearchResult is one hit returned by a search provider.
type SearchResult struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Description string  `json:"description"`
	Content     string  `json:"content,omitempty"`
	Score       float64 `json:"score,omitempty"`
}

// Snippet returns the richest text the provider returned for the hit.
func (r SearchResult) Snippet() string {
	if r.Content != "" {
		return r.Content
	}
	return r.Description
}

// SearchProvider runs web searches.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// ProviderOptions are shared by every provider built with NewSearchProvider.
type ProviderOptions struct {
	MaxResults int
	HTTPClient *http.Client
}

// NewSearchProvider builds the provider registered under name. apiKey is
// ignored by providers that need none.
func NewSearchProvider(name, apiKey string, opts ProviderOptions) (SearchProvider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "brave":
		var braveOpts []BraveOption
		if opts.MaxResults > 0 {
			braveOpts = append(braveOpts, WithBraveCount(opts.MaxResults))
		}
		if opts.HTTPClient != nil {
			braveOpts = append(braveOpts, WithBraveHTTPClient(opts.HTTPClient))
		}
		b, err := NewBraveSearch(apiKey, braveOpts...)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "tavily":
		var tavilyOpts []TavilyOption
		if opts.MaxResults > 0 {
			tavilyOpts = append(tavilyOpts, WithTavilyMaxResults(opts.MaxResults))
		}
		if opts.HTTPClient != nil {
			tavilyOpts = append(tavilyOpts, WithTavilyHTTPClient(opts.HTTPClient))
		}
		t, err := NewTavilySearch(apiKey, tavilyOpts...)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "duckduckgo", "ddg", "":
		var ddgOpts []DuckDuckGoOption
		if opts.MaxResults > 0 {
			ddgOpts = append(ddgOpts, WithDuckDuckGoMaxResults(opts.MaxResults))
		}
		if opts.HTTPClient != nil {
			ddgOpts = append(ddgOpts, WithDuckDuckGoHTTPClient(opts.HTTPClient))
		}
		return NewDuckDuckGoSearch(ddgOpts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
