package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// BraveSearch searches the web through the Brave Search API.
type BraveSearch struct {
	APIKey  string
	BaseURL string
	Count   int
	Country string
	Lang    string

	client *http.Client
}

type BraveOption func(*BraveSearch)

// WithBraveBaseURL sets the base URL for the Brave Search API.
func WithBraveBaseURL(baseURL string) BraveOption {
	return func(b *BraveSearch) {
		b.BaseURL = baseURL
	}
}

// WithBraveCount sets the number of results to return (1-20).
func WithBraveCount(count int) BraveOption {
	return func(b *BraveSearch) {
		b.Count = min(max(count, 1), 20)
	}
}

// WithBraveCountry sets the country code for search results (e.g., "US", "CN").
func WithBraveCountry(country string) BraveOption {
	return func(b *BraveSearch) {
		b.Country = country
	}
}

// WithBraveLang sets the language code for search results (e.g., "en", "zh").
func WithBraveLang(lang string) BraveOption {
	return func(b *BraveSearch) {
		b.Lang = lang
	}
}

// WithBraveHTTPClient sets the HTTP client.
func WithBraveHTTPClient(client *http.Client) BraveOption {
	return func(b *BraveSearch) {
		b.client = client
	}
}

// NewBraveSearch creates a new BraveSearch provider.
// If apiKey is empty, it tries to read from BRAVE_API_KEY environment variable.
func NewBraveSearch(apiKey string, opts ...BraveOption) (*BraveSearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("BRAVE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("BRAVE_API_KEY not set")
	}

	b := &BraveSearch{
		APIKey:  apiKey,
		BaseURL: "https://api.search.brave.com/res/v1/web/search",
		Count:   10,
		Country: "US",
		Lang:    "en",
		client:  defaultHTTPClient(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Name returns the name of the provider.
func (b *BraveSearch) Name() string {
	return "brave"
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search executes the query. Brave highlights matches with inline HTML, which
// is stripped from titles and descriptions.
func (b *BraveSearch) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(b.Count))
	if b.Country != "" {
		params.Set("country", b.Country)
	}
	if b.Lang != "" {
		params.Set("search_lang", b.Lang)
	}

	reqURL := fmt.Sprintf("%s?%s", b.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave api returned status: %d", resp.StatusCode)
	}

	var result braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	policy := bluemonday.StrictPolicy()
	results := make([]SearchResult, 0, len(result.Web.Results))
	for _, item := range result.Web.Results {
		if item.URL == "" {
			continue
		}
		results = append(results, SearchResult{
			Title:       plainText(policy, item.Title),
			URL:         item.URL,
			Description: plainText(policy, item.Description),
		})
	}
	return results, nil
}

// plainText removes markup and decodes entities.
func plainText(policy *bluemonday.Policy, s string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}
