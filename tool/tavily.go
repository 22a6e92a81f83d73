package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// TavilySearch searches the web through the Tavily API, which returns
// extracted page content alongside each hit.
type TavilySearch struct {
	APIKey      string
	BaseURL     string
	MaxResults  int
	SearchDepth string

	client *http.Client
}

type TavilyOption func(*TavilySearch)

// WithTavilyBaseURL sets the API endpoint.
func WithTavilyBaseURL(baseURL string) TavilyOption {
	return func(t *TavilySearch) {
		t.BaseURL = baseURL
	}
}

// WithTavilyMaxResults sets the number of results to return.
func WithTavilyMaxResults(n int) TavilyOption {
	return func(t *TavilySearch) {
		if n > 0 {
			t.MaxResults = n
		}
	}
}

// WithTavilySearchDepth sets "basic" or "advanced" search.
func WithTavilySearchDepth(depth string) TavilyOption {
	return func(t *TavilySearch) {
		t.SearchDepth = depth
	}
}

// WithTavilyHTTPClient sets the HTTP client.
func WithTavilyHTTPClient(client *http.Client) TavilyOption {
	return func(t *TavilySearch) {
		t.client = client
	}
}

// NewTavilySearch creates a Tavily provider. If apiKey is empty, it reads
// TAVILY_API_KEY.
func NewTavilySearch(apiKey string, opts ...TavilyOption) (*TavilySearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set")
	}

	t := &TavilySearch{
		APIKey:      apiKey,
		BaseURL:     "https://api.tavily.com/search",
		MaxResults:  5,
		SearchDepth: "basic",
		client:      defaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the name of the provider.
func (t *TavilySearch) Name() string {
	return "tavily"
}

type tavilyRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search executes the query.
func (t *TavilySearch) Search(ctx context.Context, query string) ([]SearchResult, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:       query,
		APIKey:      t.APIKey,
		SearchDepth: t.SearchDepth,
		MaxResults:  t.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api returned status: %d", resp.StatusCode)
	}

	var result tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]SearchResult, 0, len(result.Results))
	for _, item := range result.Results {
		if item.URL == "" {
			continue
		}
		results = append(results, SearchResult{
			Title:   item.Title,
			URL:     item.URL,
			Content: item.Content,
			Score:   item.Score,
		})
	}
	return results, nil
}
